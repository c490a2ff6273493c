// Command pm_encrypt encrypts a sponsor bank's connector API key with
// the process's configured AES_256_KEY_BASE64, producing the
// ciphertext stored in bank_connector_credentials.api_key_enc.
package main

import (
	"fmt"
	"os"

	"g2pbridge/internal/config"
	"g2pbridge/internal/crypto"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Println("usage: go run tools/pm_encrypt.go <plaintext>")
		os.Exit(1)
	}
	cfg := config.Load()
	enc, err := crypto.EncryptString(cfg.Sec.AESKey, os.Args[1])
	if err != nil {
		panic(err)
	}
	fmt.Println(enc)
}
