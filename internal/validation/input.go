package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30

	MinDealTitleLength       = 3
	MaxDealTitleLength       = 200
	MaxDealDescriptionLength = 5000

	MaxDisputeReasonLength   = 2000
	MaxSubmissionNotesLength = 5000

	MinDealAmount = 0.01
	MaxDealAmount = 100000000.0 // 100 миллионов

	MaxAttachmentsCount   = 20
	MaxExternalLinkLength = 500
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	if !strings.Contains(email, "@") {
		return fmt.Errorf("email должен содержать символ @")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	if !strings.Contains(domainPart, ".") {
		return fmt.Errorf("доменная часть email должна содержать точку")
	}

	emailRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !emailRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("имя пользователя обязательно")
	}

	username = strings.TrimSpace(username)

	if err := ValidateLength("имя пользователя", username, MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}

	usernameRegex := regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("имя пользователя может содержать только буквы, цифры и подчеркивание")
	}

	if len(username) > 0 && unicode.IsDigit(rune(username[0])) {
		return fmt.Errorf("имя пользователя не может начинаться с цифры")
	}

	return nil
}

// ValidateDealTitle проверяет название сделки.
func ValidateDealTitle(title string) error {
	if title == "" {
		return fmt.Errorf("название сделки обязательно")
	}

	title = strings.TrimSpace(title)

	return ValidateLength("название сделки", title, MinDealTitleLength, MaxDealTitleLength)
}

// ValidateDealDescription проверяет описание сделки.
func ValidateDealDescription(description string) error {
	if description == "" {
		return nil
	}
	return ValidateLength("описание сделки", strings.TrimSpace(description), 0, MaxDealDescriptionLength)
}

// ValidateDealAmount проверяет сумму сделки.
func ValidateDealAmount(amount float64) error {
	if amount < MinDealAmount {
		return fmt.Errorf("сумма сделки должна быть не менее %.2f", MinDealAmount)
	}
	if amount > MaxDealAmount {
		return fmt.Errorf("сумма сделки не может превышать %.0f", MaxDealAmount)
	}
	return nil
}

// ValidateCurrency проверяет код валюты.
func ValidateCurrency(currency string) error {
	if currency == "" {
		return nil
	}
	currencyRegex := regexp.MustCompile(`^[A-Za-z]{3}$`)
	if !currencyRegex.MatchString(strings.TrimSpace(currency)) {
		return fmt.Errorf("валюта должна быть трёхбуквенным кодом")
	}
	return nil
}

// ValidateDisputeReason проверяет причину спора.
func ValidateDisputeReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("причина спора обязательна")
	}
	return ValidateLength("причина спора", strings.TrimSpace(reason), 0, MaxDisputeReasonLength)
}

// ValidateSubmissionNotes проверяет комментарий к сдаче работы.
func ValidateSubmissionNotes(notes string) error {
	if notes == "" {
		return nil
	}
	return ValidateLength("комментарий к сдаче", strings.TrimSpace(notes), 0, MaxSubmissionNotesLength)
}

// ValidateAttachments проверяет список вложений или ссылок.
func ValidateAttachments(links []string) error {
	if len(links) > MaxAttachmentsCount {
		return fmt.Errorf("количество вложений не может превышать %d", MaxAttachmentsCount)
	}
	for _, link := range links {
		if err := ValidateExternalLink(&link); err != nil {
			return err
		}
	}
	return nil
}

// ValidateExternalLink проверяет внешнюю ссылку.
func ValidateExternalLink(link *string) error {
	if link != nil && *link != "" {
		linkStr := strings.TrimSpace(*link)

		if err := ValidateLength("внешняя ссылка", linkStr, 0, MaxExternalLinkLength); err != nil {
			return err
		}

		parsedURL, err := url.Parse(linkStr)
		if err != nil {
			return fmt.Errorf("некорректный формат URL")
		}

		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("ссылка должна начинаться с http:// или https://")
		}

		if parsedURL.Host == "" {
			return fmt.Errorf("ссылка должна содержать доменное имя")
		}
	}
	return nil
}
