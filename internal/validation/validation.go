// Package validation provides small composable checks for request payloads,
// following the chain-of-validators pattern used throughout this codebase's
// reference material for entity validation.
package validation

import (
	"strings"

	"github.com/ctxmemd/ctxd/internal/memstore"
)

// Validator checks one aspect of a memory entry and returns an error if it
// fails.
type Validator func(entry memstore.Entry) error

// Chain runs each validator in order, stopping at the first failure.
func Chain(validators ...Validator) Validator {
	return func(entry memstore.Entry) error {
		for _, v := range validators {
			if err := v(entry); err != nil {
				return err
			}
		}
		return nil
	}
}

// NotBlankID rejects an entry whose id is empty after trimming.
func NotBlankID() Validator {
	return func(entry memstore.Entry) error {
		if strings.TrimSpace(entry.ID) == "" {
			return memstore.ErrInvalidEntry("id must not be blank")
		}
		return nil
	}
}

// NotBlankKind rejects an entry whose kind is empty after trimming.
func NotBlankKind() Validator {
	return func(entry memstore.Entry) error {
		if strings.TrimSpace(entry.Kind) == "" {
			return memstore.ErrInvalidEntry("kind must not be blank")
		}
		return nil
	}
}

// NotBlankContent rejects an entry whose content is empty after trimming.
func NotBlankContent() Validator {
	return func(entry memstore.Entry) error {
		if strings.TrimSpace(entry.Content) == "" {
			return memstore.ErrInvalidEntry("content must not be blank")
		}
		return nil
	}
}

// PutValidator is the chain applied to memory_put requests at the handler
// layer, ahead of MemoryStore's own validation.
func PutValidator() Validator {
	return Chain(NotBlankID(), NotBlankKind(), NotBlankContent())
}

// NotEmptyPatch rejects a patch with no field set.
func NotEmptyPatch(p memstore.Patch) error {
	if p.IsEmpty() {
		return memstore.ErrInvalidEntry("patch must set at least one field")
	}
	return nil
}

// NotBlankPathID rejects a blank id used as a path/lookup key, the shape
// patch/delete/get requests need checked before touching the store.
func NotBlankPathID(id string) error {
	if strings.TrimSpace(id) == "" {
		return memstore.ErrInvalidEntry("id must not be blank")
	}
	return nil
}
