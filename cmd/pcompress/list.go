package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/moinakg/pcompress-go/internal/archive"
	"github.com/moinakg/pcompress-go/internal/cipher"
	"github.com/moinakg/pcompress-go/internal/digest"
	"github.com/moinakg/pcompress-go/internal/frame"
)

func newListCommand(log *logrus.Logger) *cobra.Command {
	var (
		cipherStr string
		cksumStr  string
		keylen    int
		passfile  string
	)
	cmd := &cobra.Command{
		Use:   "list <archive>",
		Short: "List a compressed archive's header, chunk summary and file entries without decompressing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(args[0], cipherStr, cksumStr, keylen, passfile)
		},
	}
	cmd.Flags().StringVarP(&cipherStr, "encrypt", "e", "", "encryption algorithm used by the archive: AES|SALSA20")
	cmd.Flags().StringVarP(&cksumStr, "cksum", "S", "SHA256", "checksum algorithm used by the archive")
	cmd.Flags().IntVarP(&keylen, "keylen", "k", 32, "key length in bytes: 16 or 32")
	cmd.Flags().StringVarP(&passfile, "passfile", "w", "", "path to the passphrase file used to produce the archive")
	return cmd
}

func runList(path, cipherStr, cksumStr string, keylen int, passfile string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("pcompress: opening archive: %w", err)
	}
	defer f.Close()

	var hmacFn func() cipher.HMAC
	if cipherStr != "" {
		_, salt, err := frame.PeekSalt(f)
		if err != nil {
			return fmt.Errorf("pcompress: reading salt from header: %w", err)
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("pcompress: rewinding archive: %w", err)
		}
		key, _, err := readPassphraseKey(passfile, keylen, salt)
		if err != nil {
			return err
		}
		cksumID, err := digest.ParseName(cksumStr)
		if err != nil {
			return err
		}
		hmacFn, err = cipher.NewHMAC(key, cipher.HMACSize(cksumID))
		if err != nil {
			return err
		}
	}

	res, err := archive.List(f, hmacFn)
	if err != nil {
		return fmt.Errorf("pcompress: list: %w", err)
	}

	fmt.Printf("algorithm:  %s\n", res.Header.AlgoName)
	fmt.Printf("version:    %d\n", res.Header.Version)
	fmt.Printf("chunksize:  %d\n", res.Header.ChunkSize)
	fmt.Printf("level:      %d\n", res.Header.Level)
	fmt.Printf("encrypted:  %v\n", res.Header.Encrypted())
	fmt.Printf("chunks:     %d\n", len(res.Chunks))
	if res.Entries != nil {
		fmt.Printf("files:      %d\n", len(res.Entries))
		for _, e := range res.Entries {
			fmt.Printf("  %-40s %10d bytes  mode %#o\n", e.Name, e.Size, e.Mode)
		}
	}
	return nil
}
