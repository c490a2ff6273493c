// Command pm_decrypt reverses pm_encrypt, for verifying a stored
// api_key_enc value against AES_256_KEY_BASE64 during ops debugging.
package main

import (
	"fmt"
	"os"

	"g2pbridge/internal/config"
	"g2pbridge/internal/crypto"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("usage: go run tools/pm_decrypt.go <ciphertext>")
		os.Exit(1)
	}
	cfg := config.Load()
	if len(cfg.Sec.AESKey) == 0 {
		fmt.Println("AES_256_KEY_BASE64 is not set or not valid base64")
		os.Exit(1)
	}

	pt, err := crypto.DecryptString(cfg.Sec.AESKey, os.Args[1])
	if err != nil {
		panic(err)
	}
	fmt.Println(pt)
}
