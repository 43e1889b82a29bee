package unit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// cborEncMode uses canonical encoding so equal images have equal bytes and
// therefore equal hashes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("unit: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes an image to CBOR bytes.
func Marshal(img *Image) ([]byte, error) {
	data, err := cborEncMode.Marshal(img)
	if err != nil {
		return nil, errors.Wrap(err, "unit: marshal image")
	}
	return data, nil
}

// Unmarshal deserializes an image from CBOR bytes.
func Unmarshal(data []byte) (*Image, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, errors.Wrap(err, "unit: unmarshal image")
	}
	if img.Version != FormatVersion {
		return nil, errors.Errorf("unit: unsupported image version %d", img.Version)
	}
	return &img, nil
}

// Hash returns the hex sha256 of the image's canonical encoding.
func Hash(img *Image) (string, error) {
	data, err := Marshal(img)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashBytes returns the hex sha256 of encoded image bytes.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ReadFile reads and decodes an image file.
func ReadFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unit: read %s", path)
	}
	return Unmarshal(data)
}

// WriteFile encodes an image and writes it to path.
func WriteFile(path string, img *Image) error {
	data, err := Marshal(img)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "unit: write %s", path)
	}
	return nil
}
