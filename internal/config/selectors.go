package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"examslot-watcher/internal/booking"
)

// LoadSelectors загружает селекторы сайта из YAML файла.
// Ключи, которых нет в файле, остаются из booking.DefaultSelectors.
func LoadSelectors(filePath string) (*booking.Selectors, error) {
	selectors := booking.DefaultSelectors()
	if filePath == "" {
		return &selectors, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close selectors file: %v\n", closeErr)
		}
	}()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := validateSelectors(&selectors); err != nil {
		return nil, err
	}

	return &selectors, nil
}

// validateSelectors проверяет минимальный набор селекторов
func validateSelectors(s *booking.Selectors) error {
	if s.DesktopLoginButton == "" {
		return fmt.Errorf("desktop_login_button is required")
	}
	if len(s.ContinueButtonLabels) == 0 {
		return fmt.Errorf("continue_button_labels is required")
	}
	if s.ExaminationTypeSelect == "" {
		return fmt.Errorf("examination_type_select is required")
	}
	if s.LocationButton == "" || s.LocationInput == "" || s.LocationContainer == "" {
		return fmt.Errorf("location_button, location_input and location_container are required")
	}
	if s.LocationOptionTag == "" {
		return fmt.Errorf("location_option_tag is required")
	}
	if len(s.ConfirmButtonLabels) == 0 {
		return fmt.Errorf("confirm_button_labels is required")
	}
	if s.VehicleTypeSelect == "" {
		return fmt.Errorf("vehicle_type_select is required")
	}
	if s.Results.NoTimesText == "" {
		return fmt.Errorf("results.no_times_text is required")
	}
	if len(s.Results.SlotSelectors) == 0 {
		return fmt.Errorf("results.slot_selectors is required")
	}

	return nil
}

// CheckSelectors сверяет селекторы с настройками поиска
func (c *Config) CheckSelectors(s *booking.Selectors) error {
	if c.Search.AutoBook && len(s.BookButtonLabels) == 0 {
		return fmt.Errorf("book_button_labels is required when search.auto_book is true")
	}
	return nil
}
