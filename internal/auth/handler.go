package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// DevPassword is accepted when no owner password hash is configured.
const DevPassword = "dev-password-change-me"

type Handler struct {
	Tokens TokenService
	// OwnerHash is the bcrypt hash of the owner's password.
	OwnerHash []byte
}

// NewHandler builds the token endpoint. An empty ownerHash falls back to a
// hash of DevPassword.
func NewHandler(tokens TokenService, ownerHash string) (*Handler, error) {
	h := &Handler{Tokens: tokens, OwnerHash: []byte(ownerHash)}
	if ownerHash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(DevPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		h.OwnerHash = hash
		log.Warn().Str("component", "auth").Msg("MEDIATRACKER_OWNER_PASSWORD_HASH not set, using dev password")
	}
	return h, nil
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/token", h.token)
	rg.GET("/me", AuthMiddleware(h.Tokens), h.me)
}

type tokenReq struct {
	Password string `json:"password"`
}

func (h *Handler) token(c *gin.Context) {
	var req tokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password required"})
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.OwnerHash, []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, exp, err := h.Tokens.Sign(OwnerSubject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) me(c *gin.Context) {
	claims := MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	out := gin.H{"subject": claims.Subject, "token_id": claims.ID}
	if claims.ExpiresAt != nil {
		out["expires_at"] = claims.ExpiresAt.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, out)
}
