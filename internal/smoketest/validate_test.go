package smoketest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTimecode(t *testing.T) {
	valid := []string{"100", "100s", "123.4", "123.4s", "0", "00:02:03", "1:02:03.5", "00:00:05", "100:00:00"}
	for _, v := range valid {
		assert.NoError(t, ValidateTimecode(v), v)
	}

	invalid := []string{"", "whenever", "-5", "00:99:00", "00:00:75", "1:2:3", "2m"}
	for _, v := range invalid {
		assert.Error(t, ValidateTimecode(v), v)
	}
}

func TestValidateRange(t *testing.T) {
	assert.NoError(t, ValidateRange(27, 0, 255))
	assert.NoError(t, ValidateRange(0, 0, 255), "range is inclusive at min")
	assert.NoError(t, ValidateRange(255, 0, 255), "range is inclusive at max")
	assert.Error(t, ValidateRange(-1, 0, 255))
	assert.Error(t, ValidateRange(256, 0, 255))
}
