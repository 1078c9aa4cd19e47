package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Abrahambaraka/Feza-pay/internal/models"
	"github.com/Abrahambaraka/Feza-pay/internal/repository"
	"github.com/Abrahambaraka/Feza-pay/internal/service"
)

func newKYCTestRouter(kyc KYCRecorder, authUserID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAuth(authUserID))
	h := NewKYCHandler(kyc, zap.NewNop())
	v1 := r.Group("/v1/kyc")
	v1.POST("/verify", h.Submit)
	v1.GET("/status", h.Status)
	return r
}

func kycSubmitBody() map[string]any {
	return map[string]any{
		"documentType":  "passport",
		"frontImageUrl": "https://cdn.example.com/doc-front.jpg",
		"fullName":      "Marie Kabila",
		"dateOfBirth":   "1990-04-12",
	}
}

func TestKYCSubmit(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		submitFn       func(userID string, sub service.KYCSubmission) (*models.KYCVerification, error)
		expectedStatus int
	}{
		{
			name: "created",
			body: kycSubmitBody(),
			submitFn: func(userID string, sub service.KYCSubmission) (*models.KYCVerification, error) {
				return &models.KYCVerification{UserID: userID, DocumentType: sub.DocumentType, Status: models.KYCStatusApproved}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - unsupported document type",
			body:           map[string]any{"documentType": "library_card", "frontImageUrl": "https://cdn.example.com/doc.jpg", "fullName": "Marie Kabila", "dateOfBirth": "1990-04-12"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - malformed date of birth",
			body:           map[string]any{"documentType": "passport", "frontImageUrl": "https://cdn.example.com/doc.jpg", "fullName": "Marie Kabila", "dateOfBirth": "12/04/1990"},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newKYCTestRouter(&mockKYCRecorder{submitFn: tt.submitFn}, "usr-001")
			w := doRequest(router, http.MethodPost, "/v1/kyc/verify", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected %d got %d; body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestKYCStatus(t *testing.T) {
	tests := []struct {
		name           string
		statusFn       func(userID string) (*models.KYCVerification, error)
		expectedStatus int
	}{
		{
			name: "success",
			statusFn: func(userID string) (*models.KYCVerification, error) {
				return &models.KYCVerification{UserID: userID, Status: models.KYCStatusApproved}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not found - no submission on file",
			statusFn: func(string) (*models.KYCVerification, error) {
				return nil, repository.ErrKYCNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newKYCTestRouter(&mockKYCRecorder{statusFn: tt.statusFn}, "usr-001")
			w := doRequest(router, http.MethodGet, "/v1/kyc/status", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected %d got %d; body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}
