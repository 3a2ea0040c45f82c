// Package zoo maps symbolic model keys to depth-estimation
// architectures and constructs them.
//
// The key table mirrors the upstream MiDaS naming. Architectures are
// compiled into the binary, so "fetching" a model is an in-process
// construction with randomly initialized parameters; a local weights
// file can overwrite those parameters afterwards (see the weights
// package).
package zoo

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/5usu/depthgo/internal/nn"
	"github.com/5usu/depthgo/internal/tensor"
)

// Architecture identifiers recognized by the registry.
const (
	ArchMiDaSSmall      = "MiDaS_small"
	ArchDPTSwin2Tiny256 = "DPT_Swin2_Tiny_256"
	ArchDPTLeViT224     = "DPT_LeViT_224"
)

// ErrUnknownModel is returned when a model key is not in the table.
var ErrUnknownModel = errors.New("unknown model")

// modelKeyMap is the fixed mapping from symbolic model keys to
// architecture identifiers. Read-only for the process lifetime.
var modelKeyMap = map[string]string{
	"midas_small":         ArchMiDaSSmall,
	"dpt_swin2_tiny_256":  ArchDPTSwin2Tiny256,
	"dpt_levit_224":       ArchDPTLeViT224,
	"midas_v21_small_256": ArchMiDaSSmall,
}

// Keys returns the valid model keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(modelKeyMap))
	for k := range modelKeyMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve looks up a model key (case-insensitive) and returns the
// architecture identifier. Unknown keys return an error wrapping
// ErrUnknownModel that names the valid key set.
func Resolve(key string) (string, error) {
	archID, ok := modelKeyMap[strings.ToLower(key)]
	if !ok {
		return "", fmt.Errorf("%w %q (valid keys: %s)", ErrUnknownModel, key, strings.Join(Keys(), ", "))
	}
	return archID, nil
}

// Acquire constructs the named architecture with randomly initialized
// parameters. The returned network is forward-only and ready for
// inference; the backend is used for parameter allocation.
func Acquire(archID string, backend tensor.Backend) (nn.Module, error) {
	switch archID {
	case ArchMiDaSSmall:
		return newMiDaSSmall(backend), nil
	case ArchDPTSwin2Tiny256:
		return newDPTSwin2Tiny256(backend), nil
	case ArchDPTLeViT224:
		return newDPTLeViT224(backend), nil
	default:
		return nil, fmt.Errorf("no constructor for architecture %q", archID)
	}
}
