package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "vms:retention"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanPolicyUpdate — сигнал всем инстансам перечитать реестр политик хранения.
	RedisChanPolicyUpdate = RedisNamespace + ":policy-update"
)

// RefreshSignal — содержимое сообщения: инстанс всё равно перечитывает всю таблицу.
const RefreshSignal = "refresh"
