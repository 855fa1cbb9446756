package web

import (
	"encoding/json"
	"testing"

	"github.com/ecodeclub/homework/internal/homework/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 帧类型除了 SSE 的 event 行，JSON 里也要有一份
func TestStreamFrame_帧内带类型(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name string
		ev   domain.DeliveryEvent
		want string
	}{
		{
			name: "start",
			ev: domain.DeliveryEvent{
				Type:     domain.EventStart,
				Provider: "gpt",
			},
			want: `{"type":"start","provider":"gpt"}`,
		},
		{
			name: "end",
			ev: domain.DeliveryEvent{
				Type:         domain.EventEnd,
				Tokens:       120,
				FinishReason: "stop",
				ElapsedMs:    860,
			},
			want: `{"type":"end","tokens":120,"finishReason":"stop","elapsedMs":860}`,
		},
		{
			name: "error",
			ev: domain.DeliveryEvent{
				Type:    domain.EventError,
				Message: "模型输出不是合法 JSON",
			},
			want: `{"type":"error","message":"模型输出不是合法 JSON"}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			data, err := json.Marshal(newStreamFrame(tc.ev))
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(data))
		})
	}
}
