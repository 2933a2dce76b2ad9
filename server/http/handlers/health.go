package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

var started = time.Now()

type healthBody struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(healthBody{
		Status: "ok",
		Uptime: time.Since(started).Round(time.Second).String(),
	})
}
