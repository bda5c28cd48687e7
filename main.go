package main

import (
	"time"

	"usitwi-go/drivers/usitwi"
	"usitwi-go/internal/platform"
	"usitwi-go/x/conv"
)

func main() {
	// Give the serial console time to attach before we print.
	time.Sleep(2 * time.Second)
	fam := platform.Family()
	println("boot", fam.Name, "SDA", fam.Pin(fam.SDA), "SCL", fam.Pin(fam.SCL))

	m := usitwi.New(platform.NewPort())
	m.Configure()
	if usitwi.FastMode {
		println("twi: fast mode")
	}

	// Periodic scan.
	tick := time.NewTicker(5 * time.Second)
	defer tick.Stop()

	var line [40]byte // room for eight addresses
	for t := range tick.C {
		found, err := m.Scan()
		if err != nil {
			println(t.Format("15:04:05"), "scan:", err.Error())
			continue
		}
		println(t.Format("15:04:05"), "found", len(found), string(conv.AppendHex(line[:0], found)))
	}
}
