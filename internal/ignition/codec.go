package ignition

import (
	"encoding/json"
	"fmt"

	"github.com/padlokk/ignite/internal/keymaterial"
)

// materialDTO is the plaintext shape encrypted inside a WrappedKey.
type materialDTO struct {
	Public  []byte              `json:"public"`
	Private []byte              `json:"private,omitempty"`
	Format  keymaterial.Format  `json:"format"`
}

func encodeMaterial(m keymaterial.Material) ([]byte, error) {
	data, err := json.Marshal(materialDTO{Public: m.Public, Private: m.Private, Format: m.Format})
	if err != nil {
		return nil, fmt.Errorf("ignition: encode material: %w", err)
	}
	return data, nil
}

func decodeMaterial(data []byte) (keymaterial.Material, error) {
	var dto materialDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return keymaterial.Material{}, fmt.Errorf("ignition: decode material: %w", err)
	}
	return keymaterial.New(dto.Public, dto.Private, dto.Format)
}
