package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rberrors "git.home.luguber.info/inful/relbuilder/internal/errors"
)

func TestResolve(t *testing.T) {
	t.Setenv("SIGNING_TOKEN", "s3cret")
	t.Setenv("LICENSE_KEY", "k3y")

	resolved, err := Resolve([]string{"SIGNING_TOKEN", "LICENSE_KEY"})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, "s3cret", resolved[0].Value)

	pairs := EnvPairs(resolved)
	assert.Equal(t, []string{"SIGNING_TOKEN=s3cret", "LICENSE_KEY=k3y"}, pairs)
}

func TestResolveMissingSecret(t *testing.T) {
	_, err := Resolve([]string{"RELBUILDER_TEST_UNSET_SECRET"})
	require.Error(t, err)
	assert.True(t, rberrors.IsCategory(err, rberrors.CategorySecret))
}

func TestRedactor(t *testing.T) {
	r := NewRedactor([]Resolved{{Name: "TOKEN", Value: "s3cret"}, {Name: "KEY", Value: "k3y"}})

	out := r.Redact("auth with s3cret and k3y done")
	assert.Equal(t, "auth with **** and **** done", out)
	assert.NotContains(t, out, "s3cret")
}

func TestRedactorEmptyPassthrough(t *testing.T) {
	var nilRedactor *Redactor
	assert.Equal(t, "plain", nilRedactor.Redact("plain"))
	assert.Equal(t, "plain", NewRedactor(nil).Redact("plain"))
}
