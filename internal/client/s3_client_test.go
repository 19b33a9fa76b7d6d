package client

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afnanahmadtariq/collab-pm/internal/config"
)

func newTestS3Client(t *testing.T, endpoint string) *S3Client {
	t.Helper()
	c, err := NewS3Client(&config.S3Config{
		Bucket:    "test-bucket",
		Region:    "ap-northeast-2",
		Endpoint:  endpoint,
		AccessKey: "test-access-key",
		SecretKey: "test-secret-key",
	})
	require.NoError(t, err)
	return c
}

func TestNewS3Client_Validation(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.S3Config
		errContains string
	}{
		{name: "실패: 버킷 없음", cfg: config.S3Config{Region: "ap-northeast-2"}, errContains: "bucket"},
		{name: "실패: 리전 없음", cfg: config.S3Config{Bucket: "b"}, errContains: "region"},
		{name: "실패: 커스텀 엔드포인트에 키 없음", cfg: config.S3Config{Bucket: "b", Region: "r", Endpoint: "http://localhost:9000"}, errContains: "access key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3Client(&tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestS3Client_GenerateFileKey(t *testing.T) {
	c := newTestS3Client(t, "")
	c.now = func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }
	taskID := uuid.New().String()

	key, err := c.GenerateFileKey(taskID, "PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "attachments/"+taskID+"/2024/03/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)

	_, err = c.GenerateFileKey("not-a-task", ".png")
	assert.Error(t, err)
}

func TestS3Client_GeneratePresignedURL(t *testing.T) {
	c := newTestS3Client(t, "")
	taskID := uuid.New().String()

	url, key, err := c.GeneratePresignedURL(context.Background(), taskID, "design.pdf", "application/pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.Contains(t, url, "test-bucket")
	assert.Contains(t, url, "X-Amz-Signature")
	assert.Contains(t, url, "X-Amz-Expires=300")
}

func TestS3Client_GetFileURL(t *testing.T) {
	assert.Equal(t,
		"https://test-bucket.s3.ap-northeast-2.amazonaws.com/attachments/a.png",
		newTestS3Client(t, "").GetFileURL("attachments/a.png"))
	assert.Equal(t,
		"http://localhost:9000/test-bucket/attachments/a.png",
		newTestS3Client(t, "http://localhost:9000/").GetFileURL("attachments/a.png"))
}
