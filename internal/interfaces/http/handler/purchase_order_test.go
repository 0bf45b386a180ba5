package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	procurementapp "github.com/procurement/backend/internal/application/procurement"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/procurement/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPurchaseOrderRouter(svc *MockPurchaseOrderService, p identity.Principal) *gin.Engine {
	h := NewPurchaseOrderHandler(svc)
	r := newTestRouter(&p)
	r.POST("/purchase-orders", h.Create)
	r.GET("/purchase-orders", h.List)
	r.POST("/purchase-orders/:id/finalize", h.Finalize)
	r.POST("/purchase-orders/:id/close", h.Close)
	r.POST("/purchase-orders/:id/cancel", h.Cancel)
	r.DELETE("/purchase-orders/:id", h.Delete)
	return r
}

func TestPurchaseOrderHandler_Create(t *testing.T) {
	p := testPrincipal(identity.RolePurchasing)
	vendorID, projectID := uuid.New(), uuid.New()

	svc := new(MockPurchaseOrderService)
	svc.On("Create", mock.Anything, p, mock.MatchedBy(func(req procurementapp.PurchaseOrderRequest) bool {
		return req.VendorID == vendorID && req.ProjectID == projectID && req.Amount.Equal(decimal.NewFromInt(25000))
	})).Return(&procurementapp.PurchaseOrderResponse{ID: uuid.New(), PONumber: "PO-2026-0001", Status: "draft"}, nil)

	w := performJSON(newPurchaseOrderRouter(svc, p), http.MethodPost, "/purchase-orders", map[string]any{
		"vendor_id":  vendorID,
		"project_id": projectID,
		"amount":     "25000.00",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "PO-2026-0001", decodeResponse(t, w).Data.(map[string]any)["po_number"])
	svc.AssertExpectations(t)
}

func TestPurchaseOrderHandler_Transitions(t *testing.T) {
	p := testPrincipal(identity.RolePurchasing)
	id := uuid.New()

	t.Run("finalize", func(t *testing.T) {
		svc := new(MockPurchaseOrderService)
		svc.On("Finalize", mock.Anything, p, id).Return(&procurementapp.PurchaseOrderResponse{ID: id, Status: "open"}, nil)
		w := performJSON(newPurchaseOrderRouter(svc, p), http.MethodPost, "/purchase-orders/"+id.String()+"/finalize", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("close a draft", func(t *testing.T) {
		svc := new(MockPurchaseOrderService)
		svc.On("Close", mock.Anything, p, id).
			Return(nil, shared.NewDomainError("INVALID_STATE", "Cannot close purchase order in draft status"))
		w := performJSON(newPurchaseOrderRouter(svc, p), http.MethodPost, "/purchase-orders/"+id.String()+"/close", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidState, decodeResponse(t, w).Error.Code)
	})

	t.Run("cancel binds the reason", func(t *testing.T) {
		svc := new(MockPurchaseOrderService)
		svc.On("Cancel", mock.Anything, p, id, procurementapp.CancelRequest{Reason: "Project on hold"}).
			Return(&procurementapp.PurchaseOrderResponse{ID: id, Status: "cancelled"}, nil)
		w := performJSON(newPurchaseOrderRouter(svc, p), http.MethodPost, "/purchase-orders/"+id.String()+"/cancel",
			procurementapp.CancelRequest{Reason: "Project on hold"})
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("cancel without reason", func(t *testing.T) {
		svc := new(MockPurchaseOrderService)
		w := performJSON(newPurchaseOrderRouter(svc, p), http.MethodPost, "/purchase-orders/"+id.String()+"/cancel", map[string]string{})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		svc.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("concurrent edit", func(t *testing.T) {
		svc := new(MockPurchaseOrderService)
		svc.On("Finalize", mock.Anything, p, id).Return(nil, shared.ErrConcurrencyConflict)
		w := performJSON(newPurchaseOrderRouter(svc, p), http.MethodPost, "/purchase-orders/"+id.String()+"/finalize", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestPurchaseOrderHandler_List(t *testing.T) {
	p := testPrincipal(identity.RolePurchasing)
	vendorID, projectID := uuid.New(), uuid.New()
	svc := new(MockPurchaseOrderService)
	svc.On("List", mock.Anything, p, mock.MatchedBy(func(f procurementapp.PurchaseOrderListFilter) bool {
		return *f.VendorID == vendorID && *f.ProjectID == projectID && f.Status == "open"
	})).Return([]procurementapp.PurchaseOrderResponse{}, int64(0), nil)

	w := performJSON(newPurchaseOrderRouter(svc, p), http.MethodGet,
		"/purchase-orders?status=open&vendor_id="+vendorID.String()+"&project_id="+projectID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
