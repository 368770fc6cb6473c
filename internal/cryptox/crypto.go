// Package cryptox protects portal passwords at rest.
//
// Ciphertexts are Blowfish-CBC with PKCS#7 padding; the random IV is
// prepended and the whole IV||ciphertext is base64 (standard alphabet)
// encoded. This matches the format produced by the export tooling, so files
// encrypted upstream decrypt here and vice versa.
package cryptox

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/dmitrijs2005/mdrzasync/internal/common"
	"golang.org/x/crypto/blowfish"
)

// Codec encrypts and decrypts credentials with a single process-wide key.
type Codec struct {
	block cipher.Block
	rand  io.Reader
}

// NewCodec builds a Codec from the UTF-8 bytes of key. Blowfish accepts keys
// of 1 to 56 bytes.
func NewCodec(key string) (*Codec, error) {
	block, err := blowfish.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCodec, err)
	}
	return &Codec{block: block, rand: rand.Reader}, nil
}

// Encrypt returns base64(IV || Blowfish-CBC(pad(plaintext))).
func (c *Codec) Encrypt(plaintext string) (string, error) {
	bs := c.block.BlockSize()

	iv := make([]byte, bs)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return "", fmt.Errorf("%w: generate iv: %v", common.ErrCodec, err)
	}

	padded := pad([]byte(plaintext), bs)
	out := make([]byte, bs+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out[bs:], padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. It fails with common.ErrCodec when the input is
// not base64, its length is not a multiple of the block size, or the padding
// is invalid (typically a wrong key).
func (c *Codec) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: decode base64: %v", common.ErrCodec, err)
	}

	bs := c.block.BlockSize()
	if len(raw)%bs != 0 {
		return "", fmt.Errorf("%w: input is not a multiple of the block size", common.ErrCodec)
	}
	if len(raw) < 2*bs {
		return "", fmt.Errorf("%w: input too short", common.ErrCodec)
	}

	iv, body := raw[:bs], raw[bs:]
	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plain, body)

	unpadded, err := unpad(plain, bs)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

func pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(append(make([]byte, 0, len(b)+n), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, fmt.Errorf("%w: invalid padded length", common.ErrCodec)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("%w: padding is incorrect", common.ErrCodec)
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, fmt.Errorf("%w: padding is incorrect", common.ErrCodec)
		}
	}
	return b[:len(b)-n], nil
}
