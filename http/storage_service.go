package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/knoxite/admin"
	"github.com/knoxite/admin/kit/platform/errors"
	kithttp "github.com/knoxite/admin/kit/transport/http"
	"github.com/knoxite/admin/pkg/httpc"
	"go.uber.org/zap"
)

const (
	prefixStorage = "/"

	pathStorageSize           = "/storage_size"
	pathStorageSizePlusQuota  = "/storage_size_plus_quota"
	pathStorageSizeMinusQuota = "/storage_size_minus_quota"
	pathUsedSpace             = "/used_space"
	pathTotalQuota            = "/total_quota"
)

// StorageHandler answers the aggregate storage queries. Every response
// body is a bare JSON number of bytes.
type StorageHandler struct {
	chi.Router
	api *kithttp.API
	log *zap.Logger

	storageSvc admin.StorageService
}

// Prefix returns the mount point of the handler.
func (h *StorageHandler) Prefix() string { return prefixStorage }

// NewStorageHandler returns a new instance of StorageHandler.
func NewStorageHandler(log *zap.Logger, storageSvc admin.StorageService, authn *AuthenticationHandler) *StorageHandler {
	h := &StorageHandler{
		api:        kithttp.NewAPI(kithttp.WithLog(log)),
		log:        log,
		storageSvc: storageSvc,
	}

	r := chi.NewRouter()
	r.Use(authn.RequireOperator)
	r.Get(pathStorageSize, h.handleBytes(h.storageSvc.Capacity))
	r.Get(pathStorageSizePlusQuota, h.handleCapacityPlusQuota)
	r.Get(pathStorageSizeMinusQuota, h.handleBytes(h.storageSvc.CapacityMinusQuota))
	r.Get(pathUsedSpace, h.handleBytes(h.storageSvc.UsedSpace))
	r.Get(pathTotalQuota, h.handleBytes(h.storageSvc.TotalQuota))
	h.Router = r
	return h
}

func (h *StorageHandler) handleBytes(fn func(context.Context) (admin.ByteCount, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := fn(r.Context())
		if err != nil {
			h.api.Err(w, r, err)
			return
		}
		h.api.Respond(w, r, http.StatusOK, n)
	}
}

func (h *StorageHandler) handleCapacityPlusQuota(w http.ResponseWriter, r *http.Request) {
	id, err := admin.IDFromString(r.URL.Query().Get("id"))
	if err != nil {
		h.api.Err(w, r, &errors.Error{
			Code: errors.EInvalid,
			Msg:  "query parameter id is not a valid client id",
			Err:  err,
		})
		return
	}

	n, err := h.storageSvc.CapacityPlusQuota(r.Context(), id)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}
	h.api.Respond(w, r, http.StatusOK, n)
}

// StorageService connects to the aggregate storage endpoints over HTTP.
type StorageService struct {
	Client *httpc.Client
}

var _ admin.StorageService = (*StorageService)(nil)

// Capacity returns the total storage capacity of the server.
func (s *StorageService) Capacity(ctx context.Context) (admin.ByteCount, error) {
	n, err := s.get(ctx, pathStorageSize)
	return n, withOp(admin.OpCapacity, err)
}

// CapacityPlusQuota returns the capacity still assignable to the client with
// the given id, counting its current quota as free.
func (s *StorageService) CapacityPlusQuota(ctx context.Context, id admin.ID) (admin.ByteCount, error) {
	n, err := s.get(ctx, pathStorageSizePlusQuota, [2]string{"id", id.String()})
	return n, withOp(admin.OpCapacityPlusQuota, err)
}

// CapacityMinusQuota returns the capacity not yet assigned to any client.
func (s *StorageService) CapacityMinusQuota(ctx context.Context) (admin.ByteCount, error) {
	n, err := s.get(ctx, pathStorageSizeMinusQuota)
	return n, withOp(admin.OpCapacityMinusQuota, err)
}

// TotalQuota returns the sum of all client quotas.
func (s *StorageService) TotalQuota(ctx context.Context) (admin.ByteCount, error) {
	n, err := s.get(ctx, pathTotalQuota)
	return n, withOp(admin.OpTotalQuota, err)
}

// UsedSpace returns the sum of the space used by all clients.
func (s *StorageService) UsedSpace(ctx context.Context) (admin.ByteCount, error) {
	n, err := s.get(ctx, pathUsedSpace)
	return n, withOp(admin.OpUsedSpace, err)
}

func (s *StorageService) get(ctx context.Context, urlPath string, params ...[2]string) (admin.ByteCount, error) {
	var n admin.ByteCount
	err := s.Client.
		Get(urlPath).
		QueryParams(params...).
		DecodeJSON(&n).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	return n, nil
}
