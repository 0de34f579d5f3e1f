package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/NYTimes/gziphandler"
	"github.com/go-chi/chi"
	"github.com/knoxite/admin"
	"github.com/knoxite/admin/kit/platform/errors"
	kithttp "github.com/knoxite/admin/kit/transport/http"
	"github.com/knoxite/admin/pkg/httpc"
	"go.uber.org/zap"
)

const (
	prefixClients = "/clients"
)

// ClientHandler represents an HTTP API handler for clients.
type ClientHandler struct {
	chi.Router
	api *kithttp.API
	log *zap.Logger

	clientSvc admin.ClientService
}

// Prefix returns the mount point of the handler.
func (h *ClientHandler) Prefix() string { return prefixClients }

// NewClientHandler returns a new instance of ClientHandler. Listing and
// mutating clients requires an operator; /clients/me answers a backup
// client about itself. The listing is gzipped for clients that accept it.
func NewClientHandler(log *zap.Logger, clientSvc admin.ClientService, authn *AuthenticationHandler) *ClientHandler {
	h := &ClientHandler{
		api:       kithttp.NewAPI(kithttp.WithLog(log)),
		log:       log,
		clientSvc: clientSvc,
	}

	r := chi.NewRouter()
	r.With(authn.RequireClient).Get("/me", h.handleGetMe)
	r.Group(func(r chi.Router) {
		r.Use(authn.RequireOperator)
		r.Method(http.MethodGet, "/", gziphandler.GzipHandler(http.HandlerFunc(h.handleGetClients)))
		r.Post("/", h.handlePostClient)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetClient)
			r.Put("/", h.handlePutClient)
			r.Delete("/", h.handleDeleteClient)
		})
	})
	h.Router = r
	return h
}

func (h *ClientHandler) handleGetClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clientSvc.FindClients(r.Context())
	if err != nil {
		h.api.Err(w, r, err)
		return
	}
	if clients == nil {
		clients = []*admin.Client{}
	}
	h.api.Respond(w, r, http.StatusOK, clients)
}

func (h *ClientHandler) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDParam(r)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	c, err := h.clientSvc.FindClientByID(r.Context(), id)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}
	h.api.Respond(w, r, http.StatusOK, c)
}

func (h *ClientHandler) handleGetMe(w http.ResponseWriter, r *http.Request) {
	c, ok := ClientFromContext(r.Context())
	if !ok {
		h.api.Err(w, r, admin.ErrNoAuth)
		return
	}
	h.api.Respond(w, r, http.StatusOK, c)
}

type postClientRequest struct {
	Name  string
	Quota admin.ByteCount
}

func decodePostClientRequest(r *http.Request) (*postClientRequest, error) {
	if err := r.ParseForm(); err != nil {
		return nil, &errors.Error{Code: errors.EInvalid, Msg: admin.ErrInvalidBody.Msg, Err: err}
	}

	req := &postClientRequest{Name: r.PostForm.Get("name")}
	if err := admin.ValidClientName(req.Name); err != nil {
		return nil, err
	}

	quota, err := decodeQuota(r.PostForm)
	if err != nil {
		return nil, err
	}
	if quota != nil {
		req.Quota = *quota
	}
	return req, nil
}

func (h *ClientHandler) handlePostClient(w http.ResponseWriter, r *http.Request) {
	req, err := decodePostClientRequest(r)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	c := &admin.Client{
		Name:  req.Name,
		Quota: req.Quota,
	}
	if err := h.clientSvc.CreateClient(r.Context(), c); err != nil {
		h.api.Err(w, r, err)
		return
	}
	h.log.Info("Client created", zap.Stringer("id", c.ID), zap.String("name", c.Name), zap.Stringer("quota", c.Quota))

	w.Header().Set("Location", path.Join(prefixClients, c.ID.String()))
	h.api.Respond(w, r, http.StatusCreated, c)
}

func decodePutClientRequest(r *http.Request) (admin.ClientUpdate, error) {
	var upd admin.ClientUpdate
	if err := r.ParseForm(); err != nil {
		return upd, &errors.Error{Code: errors.EInvalid, Msg: admin.ErrInvalidBody.Msg, Err: err}
	}

	if name := r.PostForm.Get("name"); name != "" {
		if err := admin.ValidClientName(name); err != nil {
			return upd, err
		}
		upd.Name = &name
	}

	quota, err := decodeQuota(r.PostForm)
	if err != nil {
		return upd, err
	}
	upd.Quota = quota
	return upd, nil
}

func (h *ClientHandler) handlePutClient(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDParam(r)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	upd, err := decodePutClientRequest(r)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	c, err := h.clientSvc.UpdateClient(r.Context(), id, upd)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}
	h.api.Respond(w, r, http.StatusOK, c)
}

func (h *ClientHandler) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDParam(r)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	if err := h.clientSvc.DeleteClient(r.Context(), id); err != nil {
		h.api.Err(w, r, err)
		return
	}
	h.log.Info("Client deleted", zap.Stringer("id", id))
	h.api.Respond(w, r, http.StatusNoContent, nil)
}

func decodeIDParam(r *http.Request) (admin.ID, error) {
	id, err := admin.IDFromString(chi.URLParam(r, "id"))
	if err != nil {
		return admin.InvalidID, &errors.Error{Code: errors.EInvalid, Msg: admin.ErrInvalidURL.Msg, Err: err}
	}
	return id, nil
}

func decodeQuota(form url.Values) (*admin.ByteCount, error) {
	raw := strings.TrimSpace(form.Get("quota"))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, &errors.Error{
			Code: errors.EInvalid,
			Msg:  fmt.Sprintf("%s: quota %q is not a byte count", admin.ErrInvalidBody.Msg, raw),
		}
	}
	q := admin.ByteCount(v)
	return &q, nil
}

// ClientService connects to the admin API over HTTP.
type ClientService struct {
	Client *httpc.Client
}

var _ admin.ClientService = (*ClientService)(nil)

// FindClients returns every client.
func (s *ClientService) FindClients(ctx context.Context) ([]*admin.Client, error) {
	var clients []*admin.Client
	err := s.Client.
		Get(prefixClients).
		DecodeJSON(&clients).
		Do(ctx)
	if err != nil {
		return nil, withOp(admin.OpFindClients, err)
	}
	return clients, nil
}

// FindClientByID returns a single client by ID.
func (s *ClientService) FindClientByID(ctx context.Context, id admin.ID) (*admin.Client, error) {
	var c admin.Client
	err := s.Client.
		Get(prefixClients, id.String()).
		DecodeJSON(&c).
		Do(ctx)
	if err != nil {
		return nil, withOp(admin.OpFindClientByID, err)
	}
	return &c, nil
}

// CreateClient creates a client and fills in the ID and AuthCode assigned
// by the server.
func (s *ClientService) CreateClient(ctx context.Context, c *admin.Client) error {
	var created admin.Client
	var location string
	err := s.Client.
		PostForm(clientForm(&c.Name, &c.Quota), prefixClients).
		RespFn(func(resp *http.Response) error {
			location = resp.Header.Get("Location")
			return nil
		}).
		StatusFn(func(resp *http.Response) error {
			if err := CheckError(resp); err != nil {
				return err
			}
			return httpc.StatusIn(http.StatusCreated)(resp)
		}).
		Decode(decodeOptionalJSON(&created)).
		Do(ctx)
	if err != nil {
		return withOp(admin.OpCreateClient, err)
	}

	if !created.ID.Valid() {
		id, err := admin.IDFromString(path.Base(location))
		if err != nil {
			return withOp(admin.OpCreateClient, err)
		}
		created.ID = id
		created.Name = c.Name
		created.Quota = c.Quota
	}
	*c = created
	return nil
}

// UpdateClient updates a client and returns its new state.
func (s *ClientService) UpdateClient(ctx context.Context, id admin.ID, upd admin.ClientUpdate) (*admin.Client, error) {
	var c admin.Client
	err := s.Client.
		PutForm(clientForm(upd.Name, upd.Quota), prefixClients, id.String()).
		DecodeJSON(&c).
		Do(ctx)
	if err != nil {
		return nil, withOp(admin.OpUpdateClient, err)
	}
	return &c, nil
}

// DeleteClient removes a client.
func (s *ClientService) DeleteClient(ctx context.Context, id admin.ID) error {
	err := s.Client.
		Delete(prefixClients, id.String()).
		StatusFn(func(resp *http.Response) error {
			if err := CheckError(resp); err != nil {
				return err
			}
			return httpc.StatusIn(http.StatusNoContent, http.StatusOK)(resp)
		}).
		Do(ctx)
	return withOp(admin.OpDeleteClient, err)
}

func clientForm(name *string, quota *admin.ByteCount) url.Values {
	vals := url.Values{}
	if name != nil {
		vals.Set("name", *name)
	}
	if quota != nil {
		vals.Set("quota", strconv.FormatUint(uint64(*quota), 10))
	}
	return vals
}

// decodeOptionalJSON tolerates servers that answer with headers only.
func decodeOptionalJSON(v interface{}) func(*http.Response) error {
	return func(resp *http.Response) error {
		err := json.NewDecoder(resp.Body).Decode(v)
		if err == io.EOF {
			return nil
		}
		return err
	}
}

func withOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return &errors.Error{
		Op:  "http." + op,
		Err: err,
	}
}
