package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "attention_please"

var (
	// MessagesReceived counts all ever received messages
	MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_received_total",
		Help:      "Messages received from the gateway",
	})

	// GuildCount counts all joined guilds
	GuildCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "guilds",
		Help:      "Guilds the bot is a member of",
	})

	// CommandsExecuted increases after each command execution
	CommandsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_executed_total",
		Help:      "Commands executed by name and result",
	}, []string{"command", "result"})

	// CommandsThrottled counts commands dropped by the guild gate or a user bucket
	CommandsThrottled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_throttled_total",
		Help:      "Commands rejected because of rate limits",
	}, []string{"reason"})

	// JobsProcessed counts scheduled job runs by kind and outcome
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "jobs_processed_total",
		Help:      "Scheduled job runs by kind and outcome",
	}, []string{"kind", "outcome"})

	// JobDuration observes how long a single job run took
	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "job_duration_seconds",
		Help:      "Duration of a scheduled job run",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"kind"})

	// SkippedTicks counts ticks dropped because the previous one was still running
	SkippedTicks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "skipped_ticks_total",
		Help:      "Scheduler ticks skipped while a previous tick was running",
	})

	// PendingJobs is the number of jobs owned by this process
	PendingJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "pending_jobs",
		Help:      "Jobs owned by this process that are waiting to run",
	})

	// Uptime stores the timestamp of the bot's boot
	Uptime = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "start_time_seconds",
		Help:      "Unix time the process started",
	})
)

func Init() {
	Uptime.Set(float64(time.Now().Unix()))
}

// Handler serves all registered metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// OnMessageCreate listens for said discord event
func OnMessageCreate(session *discordgo.Session, event *discordgo.MessageCreate) {
	MessagesReceived.Inc()
}

// CollectDiscordMetrics counts guilds until $ctx is done
func CollectDiscordMetrics(ctx context.Context, session *discordgo.Session) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		session.State.RLock()
		GuildCount.Set(float64(len(session.State.Guilds)))
		session.State.RUnlock()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
