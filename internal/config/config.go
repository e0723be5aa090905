package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	Host        string      `koanf:"host"`
	Bridge      Bridge      `koanf:"bridge"`
	Room        Room        `koanf:"room"`
	Reservation Reservation `koanf:"reservation"`
	Automation  Automation  `koanf:"automation"`
	Display     Display     `koanf:"display"`
}

type Bridge struct {
	URL               string `koanf:"url"`
	CommandTimeoutSec int    `koanf:"commandtimeoutsec"`
}

type Room struct {
	AvailabilityThresholdRoomState bool   `koanf:"availabilitythresholdroomstate"`
	AvailabilityThresholdMin       int    `koanf:"availabilitythresholdmin"`
	VerticalOrientation            bool   `koanf:"verticalorientation"`
	TimeFormat                     string `koanf:"timeformat"`
	DateFormat                     string `koanf:"dateformat"`
}

type Reservation struct {
	ReserveNowMinDur          int    `koanf:"reservenowmindur"`
	ReserveNowMaxDur          int    `koanf:"reservenowmaxdur"`
	ReserveNowEvenEndTime     bool   `koanf:"reservenowevenendtime"`
	EndEarlyType              string `koanf:"endearlytype"`
	FreeUpRoomEnMin           int    `koanf:"freeuproomenmin"`
	FreeUpRoomEnPer           int    `koanf:"freeuproomenper"`
	ExtendReservationType     string `koanf:"extendreservationtype"`
	ExtendReservationMinAfter int    `koanf:"extendreservationminafter"`
	ExtendReservationPerAfter int    `koanf:"extendreservationperafter"`
}

type Automation struct {
	ForceOrgCheckIn       bool `koanf:"forceorgcheckin"`
	ForceOrgCheckInMin    int  `koanf:"forceorgcheckinmin"`
	ForceOrgCheckInEndMin int  `koanf:"forceorgcheckinendmin"`
}

type Display struct {
	DisableIdleScreen         bool `koanf:"disableidlescreen"`
	ReservedColorForCheckedIn bool `koanf:"reservedcolorforcheckedin"`
	BlockHorizontalSize       int  `koanf:"blockhorizontalsize"`
	BlockVerticalSize         int  `koanf:"blockverticalsize"`
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Application{
		Host: "http://localhost:4000",
		Bridge: Bridge{
			URL:               "http://localhost:4001",
			CommandTimeoutSec: 30,
		},
		Room: Room{
			AvailabilityThresholdMin: 10,
			TimeFormat:               "15:04",
			DateFormat:               "Mon, Jan 2",
		},
		Reservation: Reservation{
			ReserveNowMinDur:          15,
			ReserveNowMaxDur:          120,
			EndEarlyType:              "off",
			FreeUpRoomEnMin:           5,
			FreeUpRoomEnPer:           50,
			ExtendReservationType:     "off",
			ExtendReservationMinAfter: 10,
			ExtendReservationPerAfter: 50,
		},
		Automation: Automation{
			ForceOrgCheckInMin:    15,
			ForceOrgCheckInEndMin: 5,
		},
		Display: Display{
			BlockHorizontalSize: 322,
			BlockVerticalSize:   113,
		},
	}, "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "PANEL_",
		TransformFunc: func(k, v string) (string, any) {
			// Transform the key.
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "PANEL_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
