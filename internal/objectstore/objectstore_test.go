package objectstore

import (
	"errors"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"
)

func TestIsNoSuchKeyErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "код NoSuchKey",
			err:  minio.ErrorResponse{Code: "NoSuchKey"},
			want: true,
		},
		{
			name: "статус 404",
			err:  minio.ErrorResponse{Code: "NotFound", StatusCode: http.StatusNotFound},
			want: true,
		},
		{
			name: "отказ доступа",
			err:  minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden},
			want: false,
		},
		{
			name: "обычная ошибка",
			err:  errors.New("connection refused"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNoSuchKeyErr(tt.err); got != tt.want {
				t.Errorf("isNoSuchKeyErr() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsBucketExistsErr(t *testing.T) {
	if !isBucketExistsErr(minio.ErrorResponse{Code: "BucketAlreadyOwnedByYou"}) {
		t.Error("BucketAlreadyOwnedByYou должна считаться успехом")
	}
	if !isBucketExistsErr(minio.ErrorResponse{Code: "BucketAlreadyExists"}) {
		t.Error("BucketAlreadyExists должна считаться успехом")
	}
	if isBucketExistsErr(minio.ErrorResponse{Code: "AccessDenied"}) {
		t.Error("AccessDenied не должна считаться успехом")
	}
}

func TestHealthURL(t *testing.T) {
	if got := HealthURL("minio:9000", false); got != "http://minio:9000" {
		t.Errorf("HealthURL() = %s", got)
	}
	if got := HealthURL("minio:9000", true); got != "https://minio:9000" {
		t.Errorf("HealthURL() = %s", got)
	}
}
