package main

import (
	"net/http"
	"strings"

	"github.com/skip2/go-qrcode"
)

const pairingQRSize = 256

// viewerURL is the address a second screen should open to watch the battle
func viewerURL(publicURL string, r *http.Request) string {
	if publicURL != "" {
		return strings.TrimRight(publicURL, "/") + "/"
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/"
}

// pairingHandler serves a PNG QR code of the viewer URL
func pairingHandler(publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		png, err := qrcode.Encode(viewerURL(publicURL, r), qrcode.Medium, pairingQRSize)
		if err != nil {
			Logger.Error().Err(err).Msg("qr encode")
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	}
}
