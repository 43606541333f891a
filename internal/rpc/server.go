// Package rpc serves the catalog over Connect. Messages are
// google.protobuf.Struct values carrying the same JSON shapes as the REST API.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tranbinhminh1403/back-end-thesis/internal/catalog"
	"github.com/tranbinhminh1403/back-end-thesis/internal/logger"
	"github.com/tranbinhminh1403/back-end-thesis/internal/search"
	"github.com/tranbinhminh1403/back-end-thesis/internal/wishlist"
)

const ServiceName = "pricecompare.v1.CatalogService"

const (
	HealthProcedure           = "/" + ServiceName + "/Health"
	ListProductsProcedure     = "/" + ServiceName + "/ListProducts"
	GetProductDetailProcedure = "/" + ServiceName + "/GetProductDetail"
	SearchProductsProcedure   = "/" + ServiceName + "/SearchProducts"
	FindProductsProcedure     = "/" + ServiceName + "/FindProducts"

	AddToWishlistProcedure      = "/" + ServiceName + "/AddToWishlist"
	ListWishlistProcedure       = "/" + ServiceName + "/ListWishlist"
	RemoveFromWishlistProcedure = "/" + ServiceName + "/RemoveFromWishlist"
)

type Server struct {
	catalog  *catalog.Service
	wishlist *wishlist.Service
	index    *search.Index // nil when full-text search is off
	log      *logger.Logger
}

func NewServer(cat *catalog.Service, wl *wishlist.Service, index *search.Index, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{catalog: cat, wishlist: wl, index: index, log: log}
}

// NewHandler returns the path prefix to mount and the handler serving every
// procedure under it.
func NewHandler(s *Server, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(HealthProcedure, connect.NewUnaryHandler(HealthProcedure, s.Health, opts...))
	mux.Handle(ListProductsProcedure, connect.NewUnaryHandler(ListProductsProcedure, s.ListProducts, opts...))
	mux.Handle(GetProductDetailProcedure, connect.NewUnaryHandler(GetProductDetailProcedure, s.GetProductDetail, opts...))
	mux.Handle(SearchProductsProcedure, connect.NewUnaryHandler(SearchProductsProcedure, s.SearchProducts, opts...))
	mux.Handle(FindProductsProcedure, connect.NewUnaryHandler(FindProductsProcedure, s.FindProducts, opts...))
	if s.wishlist != nil {
		mux.Handle(AddToWishlistProcedure, connect.NewUnaryHandler(AddToWishlistProcedure, s.AddToWishlist, opts...))
		mux.Handle(ListWishlistProcedure, connect.NewUnaryHandler(ListWishlistProcedure, s.ListWishlist, opts...))
		mux.Handle(RemoveFromWishlistProcedure, connect.NewUnaryHandler(RemoveFromWishlistProcedure, s.RemoveFromWishlist, opts...))
	}
	return "/" + ServiceName + "/", mux
}

func toStructPB(v interface{}) (*structpb.Struct, error) {
	// Convert map[string]interface{} to Struct. If not a map, marshal then unmarshal.
	switch m := v.(type) {
	case map[string]interface{}:
		return structpb.NewStruct(m)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		var mm map[string]interface{}
		if err := json.Unmarshal(b, &mm); err != nil {
			return nil, err
		}
		return structpb.NewStruct(mm)
	}
}

type envelope struct {
	Success       bool        `json:"success"`
	TotalProducts *int        `json:"totalProducts,omitempty"`
	Data          interface{} `json:"data"`
}

// respond wraps data the way the REST envelope does. total < 0 omits it.
func respond(data interface{}, total int) (*connect.Response[structpb.Struct], error) {
	body := envelope{Success: true, Data: data}
	if total >= 0 {
		body.TotalProducts = &total
	}
	st, err := toStructPB(body)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(st), nil
}

// connectError maps the catalog error taxonomy onto Connect codes. Upstream
// causes are logged, not returned.
func (s *Server) connectError(procedure string, err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, catalog.ErrEmptyResult),
		errors.Is(err, wishlist.ErrWishlistNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, wishlist.ErrAlreadyInWishlist):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, catalog.ErrInvalidInput):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, search.ErrUnavailable), catalog.IsUpstream(err):
		s.log.Error("%s: %v", procedure, err)
		return connect.NewError(connect.CodeUnavailable, errors.New("backend unavailable"))
	default:
		s.log.Error("%s: %v", procedure, err)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
}

func (s *Server) Health(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	status := map[string]interface{}{"status": "healthy", "search": "disabled"}
	if err := s.catalog.Ping(ctx); err != nil {
		return nil, s.connectError(HealthProcedure, err)
	}
	if s.index != nil {
		status["search"] = "up"
		if !s.index.Healthy() {
			status["search"] = "down"
		}
	}
	st, err := structpb.NewStruct(status)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(st), nil
}

func (s *Server) ListProducts(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	products, err := s.catalog.ProductsWithHistory(ctx)
	if err != nil {
		return nil, s.connectError(ListProductsProcedure, err)
	}
	return respond(products, len(products))
}

func (s *Server) GetProductDetail(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	id, err := idField(req.Msg, "id")
	if err != nil {
		return nil, s.connectError(GetProductDetailProcedure, err)
	}
	detail, err := s.catalog.ProductDetail(ctx, id)
	if err != nil {
		return nil, s.connectError(GetProductDetailProcedure, err)
	}
	return respond(detail, -1)
}

func (s *Server) SearchProducts(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	filters, err := filtersFrom(req.Msg)
	if err != nil {
		return nil, s.connectError(SearchProductsProcedure, err)
	}
	products, err := s.catalog.Search(ctx, filters)
	if err != nil {
		return nil, s.connectError(SearchProductsProcedure, err)
	}
	return respond(products, len(products))
}

func (s *Server) FindProducts(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	if s.index == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errors.New("full-text search is not configured"))
	}
	q, err := queryFrom(req.Msg)
	if err != nil {
		return nil, s.connectError(FindProductsProcedure, err)
	}
	res, err := s.index.Search(ctx, q)
	if err != nil {
		return nil, s.connectError(FindProductsProcedure, err)
	}
	return respond(res, int(res.Total))
}

func (s *Server) AddToWishlist(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	userID, err := idField(req.Msg, "userId")
	if err != nil {
		return nil, s.connectError(AddToWishlistProcedure, err)
	}
	productID, err := idField(req.Msg, "productId")
	if err != nil {
		return nil, s.connectError(AddToWishlistProcedure, err)
	}
	item, err := s.wishlist.Add(ctx, userID, productID)
	if err != nil {
		return nil, s.connectError(AddToWishlistProcedure, err)
	}
	return respond(item, -1)
}

func (s *Server) ListWishlist(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	userID, err := idField(req.Msg, "userId")
	if err != nil {
		return nil, s.connectError(ListWishlistProcedure, err)
	}
	items, err := s.wishlist.Items(ctx, userID)
	if err != nil {
		return nil, s.connectError(ListWishlistProcedure, err)
	}
	return respond(items, len(items))
}

func (s *Server) RemoveFromWishlist(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	userID, err := idField(req.Msg, "userId")
	if err != nil {
		return nil, s.connectError(RemoveFromWishlistProcedure, err)
	}
	productID, err := idField(req.Msg, "productId")
	if err != nil {
		return nil, s.connectError(RemoveFromWishlistProcedure, err)
	}
	if err := s.wishlist.Remove(ctx, userID, productID); err != nil {
		return nil, s.connectError(RemoveFromWishlistProcedure, err)
	}
	return respond(nil, -1)
}
