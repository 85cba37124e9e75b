package retention

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Subscriber — часть redis.Client, нужная слушателю.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Listen держит «живучую» подписку на канал обновлений реестра.
// При каждой (пере)подписке и каждом сообщении реестр перечитывается из БД:
// сигналы, пропущенные во время обрыва, покрываются перечитыванием на реконнекте.
// go-redis переподключается сам и присылает в канал новое подтверждение подписки;
// если канал всё же закрыт, подписка создаётся заново.
// Возвращается, когда ctx отменён.
func (r *Registry) Listen(ctx context.Context, sub Subscriber, channel string) {
	for {
		if ctx.Err() != nil {
			return
		}
		pubsub := sub.Subscribe(ctx, channel)

		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			r.logger.Error("failed to subscribe", zap.String("chan", channel), zap.Error(err))
			if !sleepCtx(ctx, 5*time.Second) {
				return
			}
			continue
		}

		if err := r.Refresh(ctx); err != nil {
			r.logger.Error("sync failed on reconnect", zap.Error(err))
		}

		ch := pubsub.ChannelWithSubscriptions()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // канал закрыт, идём на переподключение
				}
				switch m := msg.(type) {
				case *redis.Subscription:
					if m.Kind != "subscribe" {
						continue
					}
					r.logger.Info("resubscribed to policy updates", zap.String("chan", m.Channel))
					if err := r.Refresh(ctx); err != nil {
						r.logger.Error("sync failed on reconnect", zap.Error(err))
					}
				case *redis.Message:
					r.logger.Debug("policy update signal", zap.String("payload", m.Payload))
					if err := r.Refresh(ctx); err != nil {
						r.logger.Error("registry refresh failed", zap.Error(err))
					}
				}
			}
		}

		pubsub.Close()
		if !sleepCtx(ctx, time.Second) {
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
