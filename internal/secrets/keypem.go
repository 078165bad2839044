package secrets

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 200000
	saltSize         = 16
	aesKeySize       = 16
	aesBlockSize     = aes.BlockSize
)

var (
	ErrBadPassphrase  = errors.New("secrets: wrong passphrase or corrupt key block")
	ErrNotPEM         = errors.New("secrets: not a PEM block")
	ErrUnsupportedKey = errors.New("secrets: unsupported key type")
)

const (
	pemType       = "ENCRYPTED ED25519 PRIVATE KEY"
	pubPEMType    = "ED25519 PUBLIC KEY"
	procTypeValue = "4,ENCRYPTED"
	dekInfoAlgo   = "AES-128-CBC"
)

// encryptPrivateKey wraps priv's PKCS8 DER encoding in an AES-128-CBC
// encrypted PEM block, key derived via PBKDF2-HMAC-SHA512 from passphrase and
// a random salt. Mirrors the classic OpenSSL "Proc-Type"/"DEK-Info" header
// convention rather than PKCS8's own EncryptedPrivateKeyInfo, matching the
// Python reference's PEM shape.
func encryptPrivateKey(priv ed25519.PrivateKey, passphrase string) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", err
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, aesKeySize, sha512.New)

	iv := make([]byte, aesBlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	padded := pkcs7Pad(der, aesBlockSize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	blob := append(append([]byte{}, salt...), ciphertext...)
	b := &pem.Block{
		Type: pemType,
		Headers: map[string]string{
			"Proc-Type": procTypeValue,
			"DEK-Info":  dekInfoAlgo + "," + hex.EncodeToString(iv),
		},
		Bytes: blob,
	}
	return string(pem.EncodeToMemory(b)), nil
}

// decryptPrivateKey reverses encryptPrivateKey.
func decryptPrivateKey(pemStr, passphrase string) (ed25519.PrivateKey, error) {
	b, _ := pem.Decode([]byte(pemStr))
	if b == nil {
		return nil, ErrNotPEM
	}

	dekInfo := b.Headers["DEK-Info"]
	ivHex := dekInfo
	if idx := bytes.IndexByte([]byte(dekInfo), ','); idx >= 0 {
		ivHex = dekInfo[idx+1:]
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aesBlockSize {
		return nil, ErrBadPassphrase
	}

	if len(b.Bytes) < saltSize+aesBlockSize {
		return nil, ErrBadPassphrase
	}
	salt := b.Bytes[:saltSize]
	ciphertext := b.Bytes[saltSize:]
	if len(ciphertext)%aesBlockSize != 0 {
		return nil, ErrBadPassphrase
	}

	key := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, aesKeySize, sha512.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	der, err := pkcs7Unpad(padded, aesBlockSize)
	if err != nil {
		return nil, ErrBadPassphrase
	}

	key2, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, ErrBadPassphrase
	}
	priv, ok := key2.(ed25519.PrivateKey)
	if !ok {
		return nil, ErrUnsupportedKey
	}
	return priv, nil
}

func encodePublicKey(pub ed25519.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", err
	}
	b := &pem.Block{Type: pubPEMType, Bytes: der}
	return string(pem.EncodeToMemory(b)), nil
}

func decodePublicKey(pemStr string) (ed25519.PublicKey, error) {
	b, _ := pem.Decode([]byte(pemStr))
	if b == nil {
		return nil, ErrNotPEM
	}
	key, err := x509.ParsePKIXPublicKey(b.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, ErrUnsupportedKey
	}
	return pub, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(data, padding...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("secrets: invalid padded length")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, errors.New("secrets: invalid padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, errors.New("secrets: invalid padding")
		}
	}
	return data[:len(data)-padLen], nil
}
