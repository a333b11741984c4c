package factory

import (
	"fmt"
	"github.com/allape/delaycam/config"
	"github.com/allape/delaycam/quit"
	"github.com/allape/delaycam/quit/serialport"
)

// QuitTriggersFromConfig opens the OS signal trigger and the configured one, if any.
func QuitTriggersFromConfig(conf config.Config) (triggers []quit.Trigger, err error) {
	defer func() {
		if err != nil {
			for _, t := range triggers {
				_ = t.Close()
			}
			triggers = nil
		}
	}()

	signals := quit.NewSignal()
	err = signals.Open()
	if err != nil {
		return nil, err
	}
	triggers = append(triggers, signals)

	switch conf.Quit.Type {
	case config.QuitNone, "":
	case config.QuitSerialPort:
		if conf.Quit.Src == "" {
			return triggers, fmt.Errorf("quit source is empty")
		}
		baud, err := conf.Quit.Ext.GetInt("baud", serialport.DefaultBaud)
		if err != nil {
			return triggers, fmt.Errorf("quit ext baud: %w", err)
		}
		l.Info().Println("quit trigger is serial port:", conf.Quit.Src)
		button := serialport.New(conf.Quit.Src, baud, conf.Quit.Key[0])
		err = button.Open()
		if err != nil {
			return triggers, err
		}
		triggers = append(triggers, button)
	default:
		return triggers, fmt.Errorf("unknown quit driver: %s", conf.Quit.Type)
	}

	return triggers, nil
}
