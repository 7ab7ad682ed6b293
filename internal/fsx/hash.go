package fsx

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// Алгоритмы хеширования.
const (
	AlgoMD5    = "md5"
	AlgoSHA1   = "sha1"
	AlgoSHA256 = "sha256"
	AlgoSHA512 = "sha512"
)

// Кодировки результата.
const (
	EncodingHex    = "hex"
	EncodingBase64 = "base64"
	EncodingLatin1 = "latin1"
)

// Hash хеширует содержимое файла.
// Пустые algo/encoding означают md5/base64.
func (f *FS) Hash(path, algo, encoding string) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}

	file, err := os.Open(f.Resolve(path))
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return encode(h.Sum(nil), encoding)
}

// HashText хеширует строку.
func HashText(text, algo, encoding string) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}
	h.Write([]byte(text))
	return encode(h.Sum(nil), encoding)
}

func newHash(algo string) (hash.Hash, error) {
	switch algo {
	case "", AlgoMD5:
		return md5.New(), nil
	case AlgoSHA1:
		return sha1.New(), nil
	case AlgoSHA256:
		return sha256.New(), nil
	case AlgoSHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algo)
	}
}

func encode(sum []byte, encoding string) (string, error) {
	switch encoding {
	case "", EncodingBase64:
		return base64.StdEncoding.EncodeToString(sum), nil
	case EncodingHex:
		return hex.EncodeToString(sum), nil
	case EncodingLatin1:
		// Каждый байт — одна руна ISO-8859-1.
		runes := make([]rune, len(sum))
		for i, b := range sum {
			runes[i] = rune(b)
		}
		return string(runes), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedEncoding, encoding)
	}
}
