package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ponyo877/roomwatch/server/adaptor"
	"github.com/ponyo877/roomwatch/server/domain"
	"github.com/ponyo877/roomwatch/server/usecase"
	"github.com/spf13/viper"
)

// viper keys shared by the server binary and the operator CLI
const (
	GRPCListenKey       = "grpc_listen"
	HTTPListenKey       = "http_listen"
	DBPathKey           = "db_path"
	RoomsKey            = "rooms"
	LivenessDeadlineKey = "liveness.deadline"
	LivenessIntervalKey = "liveness.interval"
	MQTTBrokerKey       = "mqtt.broker"
	MQTTTopicPrefixKey  = "mqtt.topic_prefix"
)

const DefaultRooms = "1=Casino Heist,2=Morning After,3=Wizard Trials,4=Zombie Outbreak,5=Haunted Manor,6=Atlantis Rising,7=Time Machine"

type Config struct {
	GRPCListen       string
	HTTPListen       string
	DBPath           string
	Rooms            domain.RoomTable
	LivenessDeadline time.Duration
	SweepInterval    time.Duration
	MQTTBroker       string
	MQTTTopicPrefix  string
}

// SetDefaults registers the server defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(GRPCListenKey, ":50051")
	v.SetDefault(HTTPListenKey, ":8080")
	v.SetDefault(DBPathKey, "./roomwatch.db")
	v.SetDefault(RoomsKey, DefaultRooms)
	v.SetDefault(LivenessDeadlineKey, usecase.DefaultLivenessDeadline)
	v.SetDefault(LivenessIntervalKey, usecase.DefaultSweepInterval)
	v.SetDefault(MQTTTopicPrefixKey, adaptor.DefaultTopicPrefix)
}

func ConfigFromViper(v *viper.Viper) (Config, error) {
	rooms, err := roomsFromViper(v)
	if err != nil {
		return Config{}, err
	}
	return Config{
		GRPCListen:       v.GetString(GRPCListenKey),
		HTTPListen:       v.GetString(HTTPListenKey),
		DBPath:           v.GetString(DBPathKey),
		Rooms:            rooms,
		LivenessDeadline: v.GetDuration(LivenessDeadlineKey),
		SweepInterval:    v.GetDuration(LivenessIntervalKey),
		MQTTBroker:       v.GetString(MQTTBrokerKey),
		MQTTTopicPrefix:  v.GetString(MQTTTopicPrefixKey),
	}, nil
}

// rooms come either as a YAML mapping of id to name, or as a flag/env
// string in ParseRooms form.
func roomsFromViper(v *viper.Viper) (domain.RoomTable, error) {
	if s, ok := v.Get(RoomsKey).(string); ok {
		return ParseRooms(s)
	}
	rooms := make(map[int]string)
	for key, name := range v.GetStringMapString(RoomsKey) {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("invalid room id %q: %w", key, err)
		}
		rooms[id] = name
	}
	if len(rooms) == 0 {
		return nil, fmt.Errorf("no rooms configured")
	}
	return domain.NewRoomTable(rooms), nil
}

// ParseRooms reads "1=Pirate Cove,2=Bank Heist".
func ParseRooms(s string) (domain.RoomTable, error) {
	rooms := make(map[int]string)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, name, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("invalid room %q, want id=name", item)
		}
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("invalid room id %q: %w", key, err)
		}
		if _, dup := rooms[id]; dup {
			return nil, fmt.Errorf("duplicate room id %d", id)
		}
		rooms[id] = strings.TrimSpace(name)
	}
	if len(rooms) == 0 {
		return nil, fmt.Errorf("no rooms configured")
	}
	return domain.NewRoomTable(rooms), nil
}
