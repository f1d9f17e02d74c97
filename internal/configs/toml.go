package configs

import (
	"bytes"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/PolarWolf314/sshvault/internal/storage"
)

// EncodeTOML renders a struct as TOML.
func EncodeTOML(data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CreateTOML writes a struct to a new TOML file, refusing to replace an existing one.
func CreateTOML(store storage.Store, filePath string, data interface{}, perm os.FileMode) error {
	encoded, err := EncodeTOML(data)
	if err != nil {
		return err
	}
	return store.ExclusiveCreate(filePath, encoded, perm)
}

// LoadTOML loads a TOML file into a struct.
func LoadTOML(filePath string, data interface{}) (toml.MetaData, error) {
	return toml.DecodeFile(filePath, data)
}
