// Package health — HTTP-сервер проверки живости для супервизора
// (fly.io ожидает ответ на :8080).
package health

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Start поднимает health-сервер в отдельной горутине
func Start(addr string) {
	r := chi.NewRouter()
	ok := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
	r.Get("/", ok)
	r.Get("/health", ok)

	go func() {
		if err := http.ListenAndServe(addr, r); err != nil {
			log.Printf("Health-сервер остановлен: %v", err)
		}
	}()
	log.Printf("Health-сервер запущен на %s", addr)
}
