package sms

import (
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSMSClient(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SMS Client Suite")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var _ = Describe("RenderTemplate", func() {
	It("should substitute all placeholders", func() {
		body, err := RenderTemplate("welcome", map[string]string{
			"nome":  "Carlos",
			"senha": "aB3kM9xQ2p",
			"link":  "https://portal.example.com",
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(body).To(Equal("Olá Carlos! Seu acesso ao portal foi criado. Senha temporária: aB3kM9xQ2p. Acesse: https://portal.example.com"))
	})

	It("should fill the deadline reminder", func() {
		body, err := RenderTemplate("deadline_reminder", map[string]string{
			"nome":     "Carlos",
			"processo": "ER-2503-00001",
			"dias":     "3",
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(body).To(Equal("Olá Carlos, o prazo do seu processo ER-2503-00001 vence em 3 dias."))
	})

	It("should leave unknown placeholders visible", func() {
		body, err := RenderTemplate("welcome", map[string]string{"nome": "Carlos"})

		Expect(err).NotTo(HaveOccurred())
		Expect(body).To(ContainSubstring("{senha}"))
		Expect(body).To(ContainSubstring("{link}"))
	})

	It("should fail on an unknown template", func() {
		_, err := RenderTemplate("goodbye", nil)

		Expect(err).To(Equal(ErrUnknownTemplate))
	})
})

var _ = Describe("Client", func() {
	newClient := func(config Config) *Client {
		if config.Timeout == 0 {
			config.Timeout = time.Second
		}
		return NewClient(config, testLogger())
	}

	Describe("Send", func() {
		It("should silently drop messages when disabled", func() {
			client := newClient(Config{Enabled: false})
			defer client.Shutdown()

			err := client.Send("+5511999990000", "welcome", nil)

			Expect(err).NotTo(HaveOccurred())
		})

		It("should fail loudly on every call when credentials are missing", func() {
			client := newClient(Config{Enabled: true})
			defer client.Shutdown()

			for i := 0; i < 3; i++ {
				err := client.Send("+5511999990000", "welcome", nil)
				Expect(err).To(Equal(ErrMissingCredentials))
			}
		})

		It("should refuse an unknown template", func() {
			client := newClient(Config{
				Enabled:    true,
				AccountSID: "AC123",
				AuthToken:  "token",
				FromNumber: "+15550001111",
			})
			defer client.Shutdown()

			err := client.Send("+5511999990000", "goodbye", nil)

			Expect(err).To(Equal(ErrUnknownTemplate))
		})

		It("should report a full queue instead of blocking", func() {
			client := newClient(Config{
				Enabled:    true,
				AccountSID: "AC123",
				AuthToken:  "token",
				FromNumber: "+15550001111",
				MaxWorkers: 1,
				QueueSize:  1,
			})
			client.Shutdown() // stop the workers so nothing drains the queue

			Expect(client.Send("+5511999990000", "welcome", nil)).To(Succeed())

			Eventually(func() error {
				return client.Send("+5511999990000", "welcome", nil)
			}).Should(Equal(ErrQueueFull))
		})
	})

	Describe("maskNumber", func() {
		It("should keep only the last four digits", func() {
			Expect(maskNumber("+5511999990000")).To(HaveSuffix("0000"))
			Expect(maskNumber("+5511999990000")).NotTo(ContainSubstring("99999"))
		})

		It("should fully mask short values", func() {
			Expect(maskNumber("123")).To(Equal("****"))
		})
	})
})
