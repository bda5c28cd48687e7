package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"usitwi-go/drivers/usitwi/usisim"
	"usitwi-go/x/strconvx"
)

// deviceConf is one [[devices]] table.
type deviceConf struct {
	Kind    string // "memory" or "expander"
	Address string // 7-bit, any base ("0x50")
	Size    int
	Page    int
}

type config struct {
	Stretch int
	Devices []deviceConf
}

// defaultDevices mirrors the firmware's host bus.
var defaultDevices = []deviceConf{
	{Kind: "memory", Address: "0x50", Size: 256, Page: 8},
	{Kind: "expander", Address: "0x20"},
}

// loadConfig reads the TOML file at path. An empty path yields the default
// device set.
func loadConfig(path string) (config, error) {
	conf := config{Devices: defaultDevices}
	if path == "" {
		return conf, nil
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return conf, errors.Wrapf(err, "read config %s", path)
	}
	conf.Stretch = v.GetInt("bus.stretch")
	if v.IsSet("devices") {
		conf.Devices = nil
		if err := v.UnmarshalKey("devices", &conf.Devices); err != nil {
			return conf, errors.Wrap(err, "decode devices")
		}
	}
	return conf, nil
}

// build creates the simulated devices.
func (c config) build() ([]usisim.Device, error) {
	devs := make([]usisim.Device, 0, len(c.Devices))
	for i, d := range c.Devices {
		a, err := strconvx.ParseUint(d.Address, 0, 7)
		if err != nil {
			return nil, errors.Wrapf(err, "device %d: address %q", i, d.Address)
		}
		switch d.Kind {
		case "memory", "eeprom":
			devs = append(devs, usisim.NewMemory(uint8(a), d.Size, d.Page))
		case "expander":
			devs = append(devs, usisim.NewExpander(uint8(a)))
		default:
			return nil, errors.Errorf("device %d: unknown kind %q", i, d.Kind)
		}
	}
	return devs, nil
}

// eeprom returns the first memory device, if any.
func (c config) eeprom() (deviceConf, bool) {
	for _, d := range c.Devices {
		if d.Kind == "memory" || d.Kind == "eeprom" {
			return d, true
		}
	}
	return deviceConf{}, false
}
