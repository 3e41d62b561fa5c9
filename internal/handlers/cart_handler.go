package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-cart-ledger/internal/cart"
	"github.com/imrishuroy/go-cart-ledger/internal/orders"
	"github.com/imrishuroy/go-cart-ledger/internal/pricing"
	"github.com/imrishuroy/go-cart-ledger/internal/storefront"
	"github.com/imrishuroy/go-cart-ledger/internal/validation"
)

// DeviceHeader identifies the calling device. Mutating routes mint a new id when it is missing.
const DeviceHeader = "X-Device-Id"

const storeKey = "storefront"

// HandlerConfig groups dependencies for the cart handlers.
type HandlerConfig struct {
	Registry *storefront.Registry
	Logger   *zap.Logger
}

type cartView struct {
	Items       []cart.LineItem `json:"items"`
	SelectAll   bool            `json:"select_all"`
	CouponInput string          `json:"coupon_input"`
	Summary     pricing.Summary `json:"summary"`
}

type draftView struct {
	orders.Draft
	PaymentLabel string `json:"payment_label,omitempty"`
	StatusLabel  string `json:"status_label"`
}

func viewCart(s *storefront.Store) cartView {
	return cartView{
		Items:       s.Items(),
		SelectAll:   s.SelectAll(),
		CouponInput: s.CouponInput(),
		Summary:     s.Summary(),
	}
}

func viewDraft(d orders.Draft) draftView {
	return draftView{Draft: d, PaymentLabel: d.PaymentLabel(), StatusLabel: d.StatusLabel()}
}

// deviceStore resolves the caller's Store from DeviceHeader, opening a session when needed.
func deviceStore(reg *storefront.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(DeviceHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(DeviceHeader, id)
		c.Set(storeKey, reg.Get(c.Request.Context(), id))
		c.Next()
	}
}

// deviceView resolves a Store for read-only routes. Unknown devices get a transient Store
// and no id is minted, so reads never open sessions.
func deviceView(reg *storefront.Registry, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var s *storefront.Store
		if id := c.GetHeader(DeviceHeader); id != "" {
			c.Header(DeviceHeader, id)
			s = reg.Peek(c.Request.Context(), id)
		} else {
			s = storefront.New(c.Request.Context(), storefront.Deps{Logger: logger})
		}
		c.Set(storeKey, s)
		c.Next()
	}
}

func storeFrom(c *gin.Context) *storefront.Store {
	return c.MustGet(storeKey).(*storefront.Store)
}

// RegisterCartRoutes registers the cart, coupon, shipping and order-draft routes.
func RegisterCartRoutes(r *gin.Engine, cfg HandlerConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	v := validation.New()

	read := r.Group("/", deviceView(cfg.Registry, logger))
	g := r.Group("/", deviceStore(cfg.Registry))

	read.GET("/cart", func(c *gin.Context) {
		c.JSON(http.StatusOK, viewCart(storeFrom(c)))
	})

	g.POST("/cart/items", func(c *gin.Context) {
		var req validation.AddItemRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		s := storeFrom(c)
		err := s.AddItem(c.Request.Context(), cart.LineItem{
			ProductID: req.ProductID,
			Name:      req.Name,
			UnitPrice: req.UnitPrice,
			Quantity:  req.Quantity,
			Selected:  req.Selected,
		})
		if err != nil {
			validation.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, viewCart(s))
	})

	g.PATCH("/cart/items/:id", func(c *gin.Context) {
		var req validation.AdjustQuantityRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		s := storeFrom(c)
		if err := s.AdjustQuantity(c.Request.Context(), c.Param("id"), cart.Direction(req.Direction)); err != nil {
			validation.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, viewCart(s))
	})

	g.DELETE("/cart/items/:id", func(c *gin.Context) {
		s := storeFrom(c)
		s.RemoveItem(c.Request.Context(), c.Param("id"))
		c.JSON(http.StatusOK, viewCart(s))
	})

	// bulk delete of the selected items
	g.DELETE("/cart/items", func(c *gin.Context) {
		s := storeFrom(c)
		n := s.RemoveSelected(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"removed": n, "cart": viewCart(s)})
	})

	g.PUT("/cart/items/:id/selected", func(c *gin.Context) {
		var req validation.SelectRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		s := storeFrom(c)
		if !s.SetSelected(c.Param("id"), req.Selected) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item_not_in_cart"})
			return
		}
		c.JSON(http.StatusOK, viewCart(s))
	})

	g.PUT("/cart/select-all", func(c *gin.Context) {
		var req validation.SelectRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		s := storeFrom(c)
		s.SetSelectAll(req.Selected)
		c.JSON(http.StatusOK, viewCart(s))
	})

	g.POST("/cart/select-all/apply", func(c *gin.Context) {
		s := storeFrom(c)
		s.ToggleAllSelection()
		c.JSON(http.StatusOK, viewCart(s))
	})

	g.PUT("/cart/coupon", func(c *gin.Context) {
		var req validation.CouponInputRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		s := storeFrom(c)
		s.SetCouponInput(req.Code)
		c.JSON(http.StatusOK, viewCart(s))
	})

	g.PUT("/cart/shipping", func(c *gin.Context) {
		var req validation.ShippingRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		s := storeFrom(c)
		s.SelectShipping(req.OptionID)
		c.JSON(http.StatusOK, viewCart(s))
	})

	read.GET("/cart/totals", func(c *gin.Context) {
		c.JSON(http.StatusOK, storeFrom(c).Summary())
	})

	read.GET("/shipping", func(c *gin.Context) {
		c.JSON(http.StatusOK, storeFrom(c).ShippingOptions())
	})

	read.GET("/coupons", func(c *gin.Context) {
		c.JSON(http.StatusOK, storeFrom(c).Coupons())
	})

	g.POST("/coupons/refresh", func(c *gin.Context) {
		var req validation.RefreshCouponsRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		s := storeFrom(c)
		applied, err := s.RefreshCoupons(c.Request.Context(), req.MemberID)
		if errors.Is(err, storefront.ErrNoCouponGateway) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "coupon_gateway_not_configured"})
			return
		}
		// fetch failures are not surfaced; the previous list stays usable
		c.JSON(http.StatusOK, gin.H{"applied": applied, "coupons": s.Coupons()})
	})

	read.GET("/order", func(c *gin.Context) {
		c.JSON(http.StatusOK, viewDraft(storeFrom(c).Draft()))
	})

	g.POST("/order/sync", func(c *gin.Context) {
		c.JSON(http.StatusOK, viewDraft(storeFrom(c).SyncDraft()))
	})

	g.PUT("/order/recipient", func(c *gin.Context) {
		var req validation.RecipientRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		s := storeFrom(c)
		s.SetRecipient(req.Name, req.Email, req.Phone, req.Address)
		if req.PaymentStatus != "" {
			s.SetPaymentStatus(req.PaymentStatus)
		}
		c.JSON(http.StatusOK, viewDraft(s.Draft()))
	})

	g.POST("/order/submit", func(c *gin.Context) {
		s := storeFrom(c)
		rec, err := s.Submit(c.Request.Context())
		switch {
		case err == nil:
		case errors.Is(err, storefront.ErrCheckoutDisabled):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "checkout_not_configured"})
			return
		case errors.Is(err, orders.ErrEmptyCart):
			c.JSON(http.StatusConflict, gin.H{"error": "cart_empty"})
			return
		case errors.Is(err, validation.ErrInvalid):
			validation.WriteError(c, err)
			return
		default:
			logger.Error("[orders] submit failed", zap.String("device_id", s.DeviceID()), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "submit_failed", "detail": err.Error()})
			return
		}
		s.ResetDraft()
		c.JSON(http.StatusAccepted, rec)
	})

	g.DELETE("/order", func(c *gin.Context) {
		s := storeFrom(c)
		s.ResetDraft()
		c.JSON(http.StatusOK, viewDraft(s.Draft()))
	})
}
