package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	intconfig "fasobus/internal/config"
	"fasobus/internal/booking"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthUser is the user payload returned by login/register.
type AuthUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (a API) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	// Mock data mode has no user store; hand out the demo account so the
	// booking flow stays testable without MySQL.
	if intconfig.DB == nil {
		tokenString, err := a.signToken(1)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token signing failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"token": tokenString,
			"user":  AuthUser{ID: 1, Name: "Client FasoBus", Email: req.Email},
		})
		return
	}

	var (
		user         AuthUser
		passwordHash string
	)
	err := intconfig.DB.QueryRow(`
		SELECT id, name, email, COALESCE(phone, ''), password_hash
		FROM users
		WHERE email = ?
	`, req.Email).Scan(&user.ID, &user.Name, &user.Email, &user.Phone, &passwordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong email or password"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong email or password"})
		return
	}

	tokenString, err := a.signToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token signing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "user": user})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// POST /api/auth/register
func (a API) Register(c *gin.Context) {
	var req registerRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if intconfig.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "registration requires the live data mode"})
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and a password of at least 6 characters are required"})
		return
	}
	if err := booking.ValidateFullName(req.Name); err != nil {
		RespondDomainError(c, err)
		return
	}
	phone, err := booking.NormalizePhone(req.Phone)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	var exists int
	if err := intconfig.DB.QueryRow(`SELECT COUNT(*) FROM users WHERE email = ?`, req.Email).Scan(&exists); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user check failed"})
		return
	}
	if exists > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password hashing failed"})
		return
	}

	res, err := intconfig.DB.Exec(`
		INSERT INTO users (name, email, phone, password_hash)
		VALUES (?, ?, ?, ?)
	`, strings.TrimSpace(req.Name), req.Email, phone, string(hash))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user insert failed"})
		return
	}
	id, _ := res.LastInsertId()

	tokenString, err := a.signToken(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token signing failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token": tokenString,
		"user":  AuthUser{ID: id, Name: strings.TrimSpace(req.Name), Email: req.Email, Phone: phone},
	})
}

func (a API) signToken(userID int64) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(a.Env.JWTSecret))
}
