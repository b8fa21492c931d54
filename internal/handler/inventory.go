package handler

import (
	"net/http"

	"distillery/internal/dto"
	"distillery/internal/service"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct{ svc service.LedgerService }

func NewInventoryHandler(svc service.LedgerService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// ListItems godoc
// @Summary Stock levels of every item
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param category query string false "Exact category"
// @Param name query string false "Name contains"
// @Success 200 {array} dto.StockLevelResponse
// @Router /v1/inventory/items [get]
func (h *InventoryHandler) ListItems(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	var filter dto.StockLevelFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.StockLevels(c.Request.Context(), org, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateItem godoc
// @Summary Register a stock item
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateItemRequest true "Item"
// @Success 201 {object} dto.ItemResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/inventory/items [post]
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	var req dto.CreateItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateItem(c.Request.Context(), org, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// OnHand godoc
// @Summary On-hand quantity of an item
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 200 {object} dto.OnHandResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/inventory/items/{id}/on-hand [get]
func (h *InventoryHandler) OnHand(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	qty, err := h.svc.OnHand(c.Request.Context(), org, itemID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OnHandResponse{ItemID: itemID.String(), OnHand: qty})
}

// LotOnHand godoc
// @Summary On-hand quantity of one lot
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Param lot_id path string true "Lot ID"
// @Success 200 {object} dto.OnHandResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/inventory/items/{id}/lots/{lot_id}/on-hand [get]
func (h *InventoryHandler) LotOnHand(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	lotID, ok := pathID(c, "lot_id")
	if !ok {
		return
	}
	qty, err := h.svc.OnHandByLot(c.Request.Context(), org, itemID, lotID)
	if err != nil {
		writeError(c, err)
		return
	}
	lot := lotID.String()
	c.JSON(http.StatusOK, dto.OnHandResponse{ItemID: itemID.String(), LotID: &lot, OnHand: qty})
}

// Lots godoc
// @Summary Lots of an item that still hold stock, newest first
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 200 {array} dto.LotResponse
// @Router /v1/inventory/items/{id}/lots [get]
func (h *InventoryHandler) Lots(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.LotsForItem(c.Request.Context(), org, itemID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateLot godoc
// @Summary Receive a new lot
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Param body body dto.CreateLotRequest true "Lot"
// @Success 201 {object} dto.CreateLotResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/inventory/items/{id}/lots [post]
func (h *InventoryHandler) CreateLot(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateLotRequest
	if !bindAndValidate(c, &req) {
		return
	}
	lotID, err := h.svc.CreateLot(c.Request.Context(), org, itemID, req.Code, req.Quantity, req.UOM, req.Note)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CreateLotResponse{LotID: lotID.String()})
}

// PostTransactions godoc
// @Summary Post a batch of inventory transactions atomically
// @Description Every entry is written or none is. Decreasing entries may not take an item or lot below zero.
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.PostBatchRequest true "Batch"
// @Success 201 {object} dto.PostBatchResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.InsufficientStock
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/inventory/transactions [post]
func (h *InventoryHandler) PostTransactions(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	var req dto.PostBatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	batch, err := req.ToProposed()
	if err != nil {
		writeError(c, err)
		return
	}
	rows, err := h.svc.PostBatch(c.Request.Context(), org, batch)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := dto.PostBatchResponse{Posted: len(rows), Transactions: make([]dto.TxnResponse, len(rows))}
	for i := range rows {
		resp.Transactions[i] = service.TxnToResponse(&rows[i])
	}
	c.JSON(http.StatusCreated, resp)
}

// ListTransactions godoc
// @Summary Recent transactions, newest first
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param item_id query string false "Item ID"
// @Param lot_id query string false "Lot ID"
// @Param txn_type query string false "Transaction type"
// @Param page query int false "Page"
// @Param limit query int false "Page size (max 500)"
// @Success 200 {object} dto.TxnListResponse
// @Router /v1/inventory/transactions [get]
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	var filter dto.TxnFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.RecentTransactions(c.Request.Context(), org, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stocktake godoc
// @Summary Reconcile physical counts with the ledger
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.StocktakeRequest true "Counts"
// @Success 200 {object} dto.StocktakeResponse
// @Router /v1/inventory/stocktake [post]
func (h *InventoryHandler) Stocktake(c *gin.Context) {
	org, ok := orgID(c)
	if !ok {
		return
	}
	var req dto.StocktakeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Stocktake(c.Request.Context(), org, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

