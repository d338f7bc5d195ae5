package db

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestJobRoundTrip(t *testing.T) {
	data, err := EncodeJob(Job{RequestID: "req_1", Topic: "AI 政策", MaxArticles: 5, Attempt: 2})
	assert.Equal(t, nil, err)
	assert.Equal(t, `{"request_id":"req_1","topic":"AI 政策","max_articles":5,"attempt":2}`, data)

	job, err := DecodeJob(data)
	assert.Equal(t, nil, err)
	assert.Equal(t, "AI 政策", job.Topic)
	assert.Equal(t, 2, job.Attempt)
}

func TestDecodeJobRejectsBadPayload(t *testing.T) {
	_, err := DecodeJob("not json")
	assert.NotEqual(t, nil, err)

	_, err = DecodeJob(`{"topic":"x"}`)
	assert.NotEqual(t, nil, err)
}
