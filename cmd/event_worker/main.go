package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/project-feed/config"
	"github.com/oksasatya/project-feed/internal/domain/entity"
	"github.com/oksasatya/project-feed/internal/domain/repository"
	"github.com/oksasatya/project-feed/internal/infrastructure/events"
	pginfra "github.com/oksasatya/project-feed/internal/infrastructure/postgres"
	"github.com/oksasatya/project-feed/internal/infrastructure/search"
	"github.com/oksasatya/project-feed/internal/realtime"
	"github.com/oksasatya/project-feed/pkg/helpers"
	"github.com/oksasatya/project-feed/pkg/mailer"
)

type worker struct {
	index  *search.ProjectIndex
	users  repository.UserRepository
	mail   *mailer.Mailgun
	app    string
	logger *logrus.Logger
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-event-worker", cfg.Env)

	if !cfg.EventsAMQPEnabled {
		log.Println("EVENTS_AMQP_ENABLED=false; event worker disabled (server delivers events inline)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEventsQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}

	w := &worker{app: cfg.AppName, logger: logger}
	ctx := context.Background()

	if cfg.SearchEnabled {
		es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		w.index = search.NewProjectIndex(es, cfg.ESProjectsIndex)
	}
	if cfg.MailSendEnabled {
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
			log.Fatal("Mailgun not configured")
		}
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()
		w.users = pginfra.NewUserRepository(pool)
		w.mail = mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// Prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	if _, err := ch.QueueDeclare(cfg.RabbitMQEventsQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			ev, err := events.Decode(msg.Body)
			if err != nil {
				helpers.LogError(logger, "bad event message", err, nil)
				_ = msg.Nack(false, false)
				continue
			}

			c, cancel := context.WithTimeout(ctx, 15*time.Second)
			err = w.handle(c, ev)
			cancel()
			if err != nil {
				helpers.LogError(logger, "event handling failed", err, logrus.Fields{"action": string(ev.Action)})
				_ = msg.Nack(false, true)
				continue
			}
			_ = msg.Ack(false)
		}
		close(done)
	}()

	logger.Infof("event worker listening on queue=%s", cfg.RabbitMQEventsQueue)
	<-stop
	logger.Info("shutting down...")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

func (w *worker) handle(ctx context.Context, ev realtime.Event) error {
	if w.index != nil {
		if err := w.index.Apply(ctx, ev); err != nil {
			return err
		}
	}
	if ev.Action != realtime.ActionCreate || w.mail == nil {
		return nil
	}
	p, ok := ev.Project.(*entity.Project)
	if !ok {
		return nil
	}
	return w.notifyCreator(ctx, p)
}

// notifyCreator mails the creator once their project is live. A missing
// creator is logged and skipped so the message is not redelivered forever.
func (w *worker) notifyCreator(ctx context.Context, p *entity.Project) error {
	u, err := w.users.GetByID(ctx, p.CreatorID)
	if err != nil {
		helpers.LogError(w.logger, "creator lookup failed; notice skipped", err, logrus.Fields{"project_id": p.ID})
		return nil
	}
	subject, text, html, err := mailer.ProjectNotice{
		AppName:     w.app,
		CreatorName: u.Name,
		ProjectName: p.Name,
		CreatedAt:   p.CreatedAt,
	}.Render()
	if err != nil {
		return err
	}
	if err := w.mail.Send(ctx, u.Email, subject, text, html); err != nil {
		return err
	}
	helpers.LogInfo(w.logger, "project notice sent", logrus.Fields{"project_id": p.ID, "user_id": u.ID})
	return nil
}
