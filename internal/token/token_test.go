package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	t.Run("returns 6 character hex string", func(t *testing.T) {
		tok := Derive("alice", "hunter22")
		assert.Len(t, tok, 6)
		for _, c := range tok {
			assert.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'))
		}
	})

	t.Run("same inputs produce same token", func(t *testing.T) {
		assert.Equal(t, Derive("alice", "hunter22"), Derive("alice", "hunter22"))
	})

	t.Run("different inputs produce different tokens", func(t *testing.T) {
		assert.NotEqual(t, Derive("alice", "hunter22"), Derive("bob", "hunter22"))
		assert.NotEqual(t, Derive("alice", "hunter22"), Derive("alice", "hunter23"))
	})

	t.Run("default width is a prefix of the full hash", func(t *testing.T) {
		full := DeriveN("alice", "hunter22", 64)
		assert.Len(t, full, 64)
		assert.Equal(t, full[:6], Derive("alice", "hunter22"))
	})
}

func TestDeriveN(t *testing.T) {
	t.Run("respects width", func(t *testing.T) {
		assert.Len(t, DeriveN("alice", "pw", 12), 12)
	})

	t.Run("clamps invalid widths to full hash", func(t *testing.T) {
		assert.Len(t, DeriveN("alice", "pw", 0), 64)
		assert.Len(t, DeriveN("alice", "pw", -3), 64)
		assert.Len(t, DeriveN("alice", "pw", 500), 64)
	})

	t.Run("wider token is a prefix extension", func(t *testing.T) {
		short := DeriveN("alice", "pw", 6)
		long := DeriveN("alice", "pw", 12)
		assert.Equal(t, short, long[:6])
	})
}

func TestNormalize(t *testing.T) {
	t.Run("passes clean token through", func(t *testing.T) {
		assert.Equal(t, "ab12cd", Normalize("ab12cd"))
	})

	t.Run("strips surrounding quotes", func(t *testing.T) {
		assert.Equal(t, "ab12cd", Normalize(`"ab12cd"`))
	})

	t.Run("strips accumulated quote layers", func(t *testing.T) {
		assert.Equal(t, "ab12cd", Normalize(`""ab12cd""`))
	})

	t.Run("strips outer whitespace", func(t *testing.T) {
		assert.Equal(t, "ab12cd", Normalize("  ab12cd\n"))
		assert.Equal(t, "ab12cd", Normalize(` "ab12cd" `))
	})

	t.Run("keeps interior quotes", func(t *testing.T) {
		assert.Equal(t, `ab"12cd`, Normalize(`ab"12cd`))
	})

	t.Run("handles empty and quote-only input", func(t *testing.T) {
		assert.Equal(t, "", Normalize(""))
		assert.Equal(t, "", Normalize(`""`))
		assert.Equal(t, `"`, Normalize(`"`))
	})

	t.Run("is idempotent", func(t *testing.T) {
		inputs := []string{"ab12cd", `"ab12cd"`, `""ab12cd""`, "  x ", `"`, "", `" spaced "`}
		for _, in := range inputs {
			once := Normalize(in)
			assert.Equal(t, once, Normalize(once), "input %q", in)
		}
	})
}
