package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

type bannerResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	ViaTor  bool   `json:"via_tor"`
	Fetch   string `json:"fetch"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type api struct {
	fetcher *Fetcher
	version string
	viaTor  bool
}

func (a *api) registerRoutes(router *gin.Engine) {
	router.GET("/", a.banner)
	router.GET("/healthz", a.health)
	router.GET("/get", a.get)
}

func (a *api) banner(c *gin.Context) {
	c.JSON(http.StatusOK, bannerResponse{
		Service: "torserve",
		Version: a.version,
		ViaTor:  a.viaTor,
		Fetch:   "/get?url=<target>",
	})
}

func (a *api) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

// get relays the target's status, content type and body.
func (a *api) get(c *gin.Context) {
	resp, err := a.fetcher.Fetch(c.Request.Context(), c.Query("url"))
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, ErrInvalidTarget) {
			status = http.StatusBadRequest
		}
		c.AbortWithStatusJSON(status, errorResponse{Detail: err.Error()})
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(resp.StatusCode, resp.ContentLength, contentType, resp.Body, nil)
}
