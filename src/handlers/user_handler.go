package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/username/folioledger/backend/src/database"
	"github.com/username/folioledger/backend/src/logger"
	"github.com/username/folioledger/backend/src/model"
	"github.com/username/folioledger/backend/src/security"
	"github.com/username/folioledger/backend/src/security/validation"
	"github.com/username/folioledger/backend/src/utils"
)

const minPasswordLength = 8

type UserHandler struct {
	authService *security.AuthService
}

func NewUserHandler(authService *security.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

type credentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	username := validation.SanitizeString(payload.Username)
	if username == "" {
		utils.SendJSONError(w, "Username is required", http.StatusBadRequest)
		return
	}
	if len(payload.Password) < minPasswordLength {
		utils.SendJSONError(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	existing, err := model.GetUserByUsername(database.DB, username)
	if err != nil {
		logger.L.Error("Failed to check existing user", "username", username, "error", err)
		utils.SendJSONError(w, "Registration failed", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		utils.SendJSONError(w, "Username already taken", http.StatusConflict)
		return
	}

	hashed, err := h.authService.HashPassword(payload.Password)
	if err != nil {
		logger.L.Error("Failed to hash password", "error", err)
		utils.SendJSONError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	user := &model.User{Username: username, Password: hashed}
	if err := user.Create(database.DB); err != nil {
		logger.L.Error("Failed to create user", "username", username, "error", err)
		utils.SendJSONError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	logger.L.Info("User registered", "userID", user.ID, "username", username)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"id": user.ID, "username": user.Username})
}

func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	username := validation.SanitizeString(payload.Username)
	user, err := model.GetUserByUsername(database.DB, username)
	if err != nil {
		logger.L.Error("Failed to look up user on login", "username", username, "error", err)
		utils.SendJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}
	if user == nil {
		utils.SendJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}
	if err := h.authService.CompareHashAndPassword(user.Password, payload.Password); err != nil {
		logger.L.Warn("Login rejected: bad password", "username", username)
		utils.SendJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	token, err := h.authService.GenerateToken(strconv.FormatInt(user.ID, 10))
	if err != nil {
		logger.L.Error("Failed to generate token", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}
