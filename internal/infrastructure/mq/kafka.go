package mq

import (
	"errors"

	"tavern/internal/config"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"
)

// EventHeader Kafka 消息头，消费方据此区分顾客事件类型
const EventHeader = "event"

var ErrProducerNotReady = errors.New("Kafka 生产者未初始化")

var KafkaProducer sarama.SyncProducer

// Event 一条待投递的顾客事件
type Event struct {
	Topic string
	Key   string
	Name  string
	Body  string
}

func newProducerConfig() *sarama.Config {
	c := sarama.NewConfig()
	c.ClientID = "tavern"
	c.Producer.RequiredAcks = sarama.WaitForAll
	c.Producer.Retry.Max = 3
	c.Producer.Return.Successes = true
	// 同一顾客的事件按 key 落到同一分区，保证顺序
	c.Producer.Partitioner = sarama.NewHashPartitioner
	return c
}

// InitKafka 创建同步生产者；未启用时返回 nil
func InitKafka(cfg *config.KafkaConfig) sarama.SyncProducer {
	if !cfg.Enabled {
		log.Info().Msg("Kafka 未启用，顾客事件只写入发件箱")
		return nil
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, newProducerConfig())
	if err != nil {
		log.Fatal().Err(err).Strs("brokers", cfg.Brokers).Msg("创建 Kafka 生产者失败")
	}

	KafkaProducer = producer
	log.Info().Strs("brokers", cfg.Brokers).Msg("Kafka 生产者创建成功")
	return producer
}

// Publish 同步投递一条事件，返回分区与位点
func Publish(event *Event) (int32, int64, error) {
	if KafkaProducer == nil {
		return 0, 0, ErrProducerNotReady
	}

	msg := &sarama.ProducerMessage{
		Topic: event.Topic,
		Key:   sarama.StringEncoder(event.Key),
		Value: sarama.StringEncoder(event.Body),
		Headers: []sarama.RecordHeader{
			{Key: []byte(EventHeader), Value: []byte(event.Name)},
		},
	}
	return KafkaProducer.SendMessage(msg)
}

// CloseKafka 关闭生产者
func CloseKafka() {
	if KafkaProducer == nil {
		return
	}
	if err := KafkaProducer.Close(); err != nil {
		log.Error().Err(err).Msg("关闭 Kafka 生产者失败")
	}
	KafkaProducer = nil
}
