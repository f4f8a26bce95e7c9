package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/lynx-wire/pkg/configpkg"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name      string
		requestID string
		status    int
		wantLevel string
	}{
		{
			name:      "GeneratedRequestID",
			status:    http.StatusCreated,
			wantLevel: "info",
		},
		{
			name:      "ForwardedRequestID",
			requestID: "req-42",
			status:    http.StatusCreated,
			wantLevel: "info",
		},
		{
			name:      "ServerError",
			status:    http.StatusInternalServerError,
			wantLevel: "error",
		},
		{
			name:      "PolledRead",
			status:    http.StatusOK,
			wantLevel: "debug",
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf).Level(zerolog.TraceLevel)

			var handlerLogger *zerolog.Logger

			server := gin.New()
			server.Use(RequestLogger(logger))
			server.Any("/path", func(c *gin.Context) {
				handlerLogger = zerolog.Ctx(c.Request.Context())
				c.Status(tc.status)
			})

			method := http.MethodPost
			if tc.status == http.StatusOK {
				method = http.MethodGet
			}

			req, err := http.NewRequest(method, "/path", nil)
			require.NoError(t, err)

			if tc.requestID != "" {
				req.Header.Set(RequestIDHeader, tc.requestID)
			}

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			requestID := recorder.Header().Get(RequestIDHeader)
			require.NotEmpty(t, requestID)

			if tc.requestID != "" {
				require.Equal(t, tc.requestID, requestID)
			}

			require.NotNil(t, handlerLogger)
			require.NotEqual(t, zerolog.Disabled, handlerLogger.GetLevel())

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			require.Equal(t, tc.wantLevel, entry["level"])
			require.Equal(t, requestID, entry["request_id"])
			require.EqualValues(t, tc.status, entry["status_code"])
			require.Equal(t, "/path", entry["path"])
		})
	}
}

func TestGetLogger(t *testing.T) {
	testCases := []struct {
		env       string
		wantLevel zerolog.Level
	}{
		{env: "development", wantLevel: zerolog.TraceLevel},
		{env: "production", wantLevel: zerolog.InfoLevel},
	}

	for _, tc := range testCases {
		logger := GetLogger(configpkg.Config{Environment: tc.env})
		require.Equal(t, tc.wantLevel, logger.GetLevel(), tc.env)
	}
}
