package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"typed", NewAppError(CodeNotion, errors.New("boom")), CodeNotion},
		{"wrapped typed", fmt.Errorf("stage: %w", NewAppError(CodeBudgetExceeded, nil)), CodeBudgetExceeded},
		{"message token", errors.New("MODEL_INVALID_JSON"), CodeModelInvalidJSON},
		{"dm vs post", errors.New("send failed: TELEGRAM_DM_ERROR"), CodeTelegramDM},
		{"unknown", errors.New("connection reset"), CodeUpload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestAppErrorIs(t *testing.T) {
	err := fmt.Errorf("select: %w", NewAppError(CodeModelInvalidJSON, errors.New("missing selected")))
	assert.True(t, errors.Is(err, NewAppError(CodeModelInvalidJSON, nil)))
	assert.False(t, errors.Is(err, NewAppError(CodeNotion, nil)))
	assert.Equal(t, "MODEL_INVALID_JSON: missing selected", errors.Unwrap(err).Error())
}
