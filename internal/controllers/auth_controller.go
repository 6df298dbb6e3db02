package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"walkcanvas/internal/store"
)

type registerInput struct {
	ID   flexString `json:"ID"`
	PW   string     `json:"PW"`
	Name string     `json:"NAME"`
	Sex  string     `json:"SEX"`
}

type loginInput struct {
	ID flexString `json:"ID"`
	PW string     `json:"PW"`
}

type changeInput struct {
	ID    flexString `json:"ID"`
	PW    string     `json:"PW"`
	NewPW string     `json:"NEW_PW"`
	Name  string     `json:"NAME"`
	Sex   string     `json:"SEX"`
}

// CheckID answers GET /check-id?ID=.
func (ctl *Controller) CheckID(c *gin.Context) {
	id := strings.TrimSpace(c.Query("ID"))
	if id == "" {
		badRequest(c, "ID is required")
		return
	}
	exists, err := ctl.store.ExistsByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "check id", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

// CheckIDLegacy answers POST /check-id {"ID": ...} for older clients.
func (ctl *Controller) CheckIDLegacy(c *gin.Context) {
	var body struct {
		ID flexString `json:"ID"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	id := strings.TrimSpace(string(body.ID))
	if id == "" {
		badRequest(c, "ID is required")
		return
	}
	exists, err := ctl.store.ExistsByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "check id", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isDuplicate": exists})
}

// CheckNickname answers GET /check-nickname?nickname=.
func (ctl *Controller) CheckNickname(c *gin.Context) {
	nickname := strings.TrimSpace(c.Query("nickname"))
	if nickname == "" {
		badRequest(c, "nickname is required")
		return
	}
	exists, err := ctl.store.ExistsByNickname(c.Request.Context(), nickname)
	if err != nil {
		respondError(c, "check nickname", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

// Register creates an account from ID, PW, NAME and SEX.
func (ctl *Controller) Register(c *gin.Context) {
	var input registerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	account, err := ctl.store.Register(c.Request.Context(), store.RegisterInput{
		AccountID: strings.TrimSpace(string(input.ID)),
		Password:  input.PW,
		Nickname:  strings.TrimSpace(input.Name),
		Gender:    strings.TrimSpace(input.Sex),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"message": "ID is already in use"})
			return
		}
		respondError(c, "register", err)
		return
	}

	logrus.WithField("account_id", account.AccountID).Info("account registered")
	c.JSON(http.StatusCreated, gin.H{"message": "account registered"})
}

// Login checks ID and PW and returns the account nickname.
func (ctl *Controller) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	account, err := ctl.store.Authenticate(c.Request.Context(), strings.TrimSpace(string(input.ID)), input.PW)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "fail",
				"message": "account not registered or wrong ID/password",
			})
			return
		}
		respondError(c, "login", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  "Welcome, " + account.Nickname,
		"nickname": account.Nickname,
	})
}

// ChangeAccount answers POST /change. Password, nickname and gender are replaced together.
func (ctl *Controller) ChangeAccount(c *gin.Context) {
	var input changeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	err := ctl.store.ChangeAccount(c.Request.Context(), store.ChangeAccountInput{
		AccountID:       strings.TrimSpace(string(input.ID)),
		CurrentPassword: input.PW,
		NewPassword:     input.NewPW,
		Nickname:        strings.TrimSpace(input.Name),
		Gender:          strings.TrimSpace(input.Sex),
	})
	if err != nil {
		respondError(c, "change account", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account information changed"})
}
