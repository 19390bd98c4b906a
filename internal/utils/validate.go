package utils

import (
	"regexp"
	"strings"
	"time"

	"tixup/internal/models"
)

var (
	// Same loose shape the checkout form accepts: something@something.something
	checkoutEmailRegex = regexp.MustCompile(`\S+@\S+\.\S+`)
	repeatedDigitRegex = regexp.MustCompile(`^(0+|1+|2+|3+|4+|5+|6+|7+|8+|9+)$`)
	birthDateRegex     = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
)

// MinimumAge is the youngest age accepted on a profile
const MinimumAge = 13

// ValidateEmail reports whether email has the basic local@domain.tld shape
func ValidateEmail(email string) bool {
	return checkoutEmailRegex.MatchString(email)
}

// CPFHasElevenDigits is the format-only check used at checkout
func CPFHasElevenDigits(cpf string) bool {
	return len(DigitsOnly(cpf)) == 11
}

// ValidateCPF checks length and both modulo-11 check digits
func ValidateCPF(cpf string) bool {
	d := DigitsOnly(cpf)
	if len(d) != 11 {
		return false
	}
	if repeatedDigitRegex.MatchString(d) {
		return false
	}

	digits := make([]int, 11)
	for i := range d {
		digits[i] = int(d[i] - '0')
	}

	return cpfCheckDigit(digits[:9]) == digits[9] && cpfCheckDigit(digits[:10]) == digits[10]
}

// cpfCheckDigit computes the next check digit over the given prefix
func cpfCheckDigit(prefix []int) int {
	weight := len(prefix) + 1
	sum := 0
	for i, digit := range prefix {
		sum += digit * (weight - i)
	}
	check := (sum * 10) % 11
	if check == 10 {
		return 0
	}
	return check
}

// ValidateBirthDate checks a DD/MM/YYYY date that is not in the future and
// belongs to someone at least MinimumAge years old on now.
func ValidateBirthDate(birthDate string, now time.Time) bool {
	if !birthDateRegex.MatchString(birthDate) {
		return false
	}

	parsed, err := time.ParseInLocation("02/01/2006", birthDate, now.Location())
	if err != nil {
		return false
	}
	if parsed.After(now) {
		return false
	}

	age := now.Year() - parsed.Year()
	if now.Month() < parsed.Month() || (now.Month() == parsed.Month() && now.Day() < parsed.Day()) {
		age--
	}
	return age >= MinimumAge
}

// ValidateProfile checks the profile edit form and returns one message per
// invalid field. An empty map means the form is valid.
func ValidateProfile(form models.ProfileForm, now time.Time) map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(form.Name) == "" {
		errors["name"] = "Nome completo é obrigatório."
	}

	if strings.TrimSpace(form.Email) == "" {
		errors["email"] = "Email é obrigatório."
	} else if !ValidateEmail(form.Email) {
		errors["email"] = "Email inválido."
	}

	phone := DigitsOnly(form.Phone)
	if phone == "" {
		errors["phone"] = "Telefone é obrigatório."
	} else if len(phone) < 10 || len(phone) > 11 {
		errors["phone"] = "Telefone deve ter 10 ou 11 dígitos (DDD + número)."
	}

	if strings.TrimSpace(form.Address) == "" {
		errors["address"] = "Endereço é obrigatório."
	}

	if DigitsOnly(form.CPF) == "" {
		errors["cpf"] = "CPF é obrigatório."
	} else if !ValidateCPF(form.CPF) {
		errors["cpf"] = "CPF inválido."
	}

	if form.BirthDate == "" {
		errors["birth_date"] = "Data de nascimento é obrigatória."
	} else if !ValidateBirthDate(form.BirthDate, now) {
		errors["birth_date"] = "Data de nascimento inválida (formato DD/MM/YYYY, mínimo 13 anos)."
	}

	return errors
}
