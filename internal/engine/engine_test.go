package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casservice/internal/guard"
)

func TestBaseFallthroughs(t *testing.T) {
	b := Base{EngineName: "stub"}

	result := b.Validate("x")
	assert.False(t, result.Success)
	assert.Equal(t, "stub", result.Engine)

	computed := b.Compute(ComputeRequest{Template: "anything"})
	assert.False(t, computed.Success)
	assert.Equal(t, ErrNotImplemented, computed.ErrorCode)
	assert.Equal(t, "stub", computed.Engine)
}

func TestComputeRequestTimeoutClamp(t *testing.T) {
	max := 10 * time.Second

	assert.Equal(t, max, ComputeRequest{}.Timeout(max))
	assert.Equal(t, max, ComputeRequest{TimeoutS: -1}.Timeout(max))
	assert.Equal(t, max, ComputeRequest{TimeoutS: 60}.Timeout(max))
	assert.Equal(t, 2*time.Second, ComputeRequest{TimeoutS: 2}.Timeout(max))
	assert.Equal(t, 500*time.Millisecond, ComputeRequest{TimeoutS: 0.5}.Timeout(max))
}

func testTemplates() map[string]Template {
	return map[string]Template{
		"echo": {
			RequiredInputs: []string{"msg"},
			Description:    "echo the message",
			Generate: func(inputs map[string]string) string {
				return inputs["msg"]
			},
		},
	}
}

func TestCheckTemplateUnknown(t *testing.T) {
	_, reject := CheckTemplate("stub", testTemplates(), guard.Python(),
		ComputeRequest{Template: "nonexistent"}, time.Now())

	require.NotNil(t, reject)
	assert.Equal(t, ErrUnknownTemplate, reject.ErrorCode)
	assert.Contains(t, reject.Error, "nonexistent")
	assert.Equal(t, "stub", reject.Engine)
}

func TestCheckTemplateMissingInput(t *testing.T) {
	_, reject := CheckTemplate("stub", testTemplates(), guard.Python(),
		ComputeRequest{Template: "echo"}, time.Now())

	require.NotNil(t, reject)
	assert.Equal(t, ErrMissingInput, reject.ErrorCode)
	assert.Contains(t, reject.Error, "msg")
}

func TestCheckTemplateBlockedInput(t *testing.T) {
	_, reject := CheckTemplate("stub", testTemplates(), guard.Python(),
		ComputeRequest{
			Template: "echo",
			Inputs:   map[string]string{"msg": "__import__('os').system('ls')"},
		}, time.Now())

	require.NotNil(t, reject)
	assert.Equal(t, ErrInvalidInput, reject.ErrorCode)
	assert.Contains(t, reject.Error, "msg")
}

func TestCheckTemplatePasses(t *testing.T) {
	tmpl, reject := CheckTemplate("stub", testTemplates(), guard.Python(),
		ComputeRequest{
			Template: "echo",
			Inputs:   map[string]string{"msg": "hello"},
		}, time.Now())

	require.Nil(t, reject)
	assert.Equal(t, "hello", tmpl.Generate(map[string]string{"msg": "hello"}))
}

func TestTemplateDescriptions(t *testing.T) {
	descs := TemplateDescriptions(testTemplates())
	assert.Equal(t, map[string]string{"echo": "echo the message"}, descs)
	assert.Nil(t, TemplateDescriptions(nil))
}
