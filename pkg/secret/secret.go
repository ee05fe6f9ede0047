package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Secret is the signing credential of a single ETA request
type Secret struct {
	APIKey string
	Ctr    int
}

const counterRange = 1 << 30

// VendorID identifies this process to the ETA endpoint for its whole lifetime
var VendorID = generateVendorID()

var key = deriveKey()

// GetSecret encrypts the plaintext with AES-CTR starting at the given counter,
// or at a random counter when none is given. Identical inputs give identical secrets.
func GetSecret(plaintext string, counter ...int) Secret {
	var ctr int
	if len(counter) > 0 {
		ctr = counter[0]
	} else {
		ctr = randomInt(counterRange)
	}

	iv := counterBlock(ctr)

	block, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}

	ciphertext := make([]byte, len(plaintext))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, []byte(plaintext))

	return Secret{
		APIKey: strings.ToUpper(hex.EncodeToString(ciphertext)),
		Ctr:    ctr,
	}
}

// counterBlock is the initial AES-CTR block: the counter as a 128-bit big-endian two's complement integer
func counterBlock(ctr int) []byte {
	iv := make([]byte, aes.BlockSize)
	if ctr < 0 {
		for i := 0; i < 8; i++ {
			iv[i] = 0xff
		}
	}
	binary.BigEndian.PutUint64(iv[8:], uint64(ctr))

	return iv
}

func generateVendorID() string {
	var vendorID strings.Builder
	for i := 0; i < 16; i++ {
		fmt.Fprintf(&vendorID, "%x", randomInt(16))
	}

	return vendorID.String()
}

func randomInt(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(err)
	}

	return int(n.Int64())
}

// The key is shipped the same way the web frontend ships it
var keyFragments = []string{
	"CCNzfiQsIDQ8MQ==",
	"ES4YfCcoJwUKEzN4",
	"fnwbCDQfJxMaFS4=",
	"ej0GBw0jCxJaXUo=",
}

const (
	fragmentPage = "KMBMainView"
	keyPage      = "KMBSplashScreen"
)

func deriveKey() []byte {
	var encoded strings.Builder
	for _, fragment := range keyFragments {
		encoded.Write(decodeFragment(fragment, fragmentPage))
	}

	keyHex := decodeFragment(encoded.String(), keyPage)

	derived, err := hex.DecodeString(string(keyHex))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded key: %v", err))
	}

	return derived
}

func decodeFragment(fragment string, page string) []byte {
	decoded, err := base64.StdEncoding.DecodeString(fragment)
	if err != nil {
		panic(fmt.Sprintf("invalid embedded key fragment: %v", err))
	}

	return xorBytes(decoded, []byte(page))
}

func xorBytes(a []byte, b []byte) []byte {
	result := make([]byte, len(a))
	for i := range a {
		result[i] = a[i] ^ b[i%len(b)]
	}

	return result
}
