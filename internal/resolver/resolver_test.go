package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_EmptyInputZeroConfidence(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	task := r.Resolve(Input{})
	assert.Equal(t, float32(0), task.Confidence.Overall)
	assert.Empty(t, task.FilesHint)
}

func TestResolve_FileHintFromEntityBoostsConfidence(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	task := r.Resolve(Input{Raw: "Fix issue in @PaymentController.php"})
	assert.True(t, task.Confidence.HasExactFileName)
	assert.Contains(t, task.FilesHint, "PaymentController.php")
	assert.GreaterOrEqual(t, task.Confidence.Overall, float32(0.35))
}

func TestResolve_StackTraceFilesMergeIntoHint(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	task := r.Resolve(Input{
		Raw:        "Fix the crash",
		StackTrace: "    at getUser (src/services/user.js:42:10)\n",
	})
	assert.Contains(t, task.FilesHint, "src/services/user.js")
}

func TestResolve_DiffRenameAddsBothOldAndNewPaths(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	diff := `diff --git a/old.go b/new.go
rename from old.go
rename to new.go
`
	task := r.Resolve(Input{Raw: "Rename module", Diff: diff})
	assert.Contains(t, task.FilesHint, "old.go")
	assert.Contains(t, task.FilesHint, "new.go")
}

func TestResolve_DomainMatchedFromKeywords(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	task := r.Resolve(Input{Raw: "Payment webhook failing for Stripe integration"})
	assert.Contains(t, task.Domains, "payments")
}

func TestResolve_ConfidenceNeverExceedsOne(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	task := r.Resolve(Input{
		Raw: "Fix bug in UserController.createPayment at /api/checkout returning E1001 " +
			"in @UserController.php with many many many many many many many many many many keywords",
	})
	assert.LessOrEqual(t, task.Confidence.Overall, float32(1))
}

func TestResolve_FilesHintDeduplicated(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	task := r.Resolve(Input{
		Raw:       "Fix issue in @PaymentController.php",
		FilesHint: []string{"PaymentController.php"},
	})
	count := 0
	for _, f := range task.FilesHint {
		if f == "PaymentController.php" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
