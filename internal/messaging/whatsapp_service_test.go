package messaging

import (
	"context"
	"testing"

	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/chat"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/genai"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/notify"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/store"
	"github.com/Kiran2552004/Online-Chatbot-based-ticketing-system/internal/whatsapp"
)

func TestWhatsAppServiceWithMockClient(t *testing.T) {
	engine := chat.NewEngine(store.NewInMemoryStore(), genai.NoopResponder{}, notify.NoopNotifier{})
	svc := NewWhatsAppService(whatsapp.NewMockClient(), engine)

	ctx := context.Background()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := svc.SendMessage(ctx, "15551234567", "hello"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}
