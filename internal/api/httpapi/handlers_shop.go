package httpapi

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

type itemUpsertRequest struct {
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

type itemsResponse struct {
	Items []itemView `json:"items"`
}

type purchaseRequest struct {
	Actor    string `json:"actor"`
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

type purchaseResponse struct {
	Item     itemView        `json:"item"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
	Balance  decimal.Decimal `json:"balance"`
}

func pathItem(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("name"))
}

func (s *Server) handleShopList(w http.ResponseWriter, r *http.Request) {
	items, err := s.shop.ListItems(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: newItemViews(items)})
}

func (s *Server) handleShopGet(w http.ResponseWriter, r *http.Request) {
	item, err := s.shop.Item(r.Context(), pathItem(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newItemView(item))
}

func (s *Server) handleShopUpsert(w http.ResponseWriter, r *http.Request) {
	var req itemUpsertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := s.shop.UpsertItem(r.Context(), pathItem(r), req.Price, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newItemView(item))
}

func (s *Server) handleShopRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.shop.RemoveItem(r.Context(), pathItem(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleShopPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.shop.Purchase(r.Context(), req.Actor, req.Item, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purchaseResponse{
		Item:     newItemView(result.Item),
		Quantity: result.Quantity,
		Total:    result.Total,
		Balance:  result.Balance,
	})
}
