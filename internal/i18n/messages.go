package i18n

const (
	KeyItemAddedToCart                        = "itemAddedToCart"
	KeyItemAddedToCartDescSuffix              = "itemAddedToCartDescSuffix"
	KeyItemRemovedFromCart                    = "itemRemovedFromCart"
	KeyCartCleared                            = "cartCleared"
	KeyCartUpdated                            = "cartUpdated"
	KeyYourCartIsEmpty                        = "yourCartIsEmpty"
	KeyCartIsEmpty                            = "cartIsEmpty"
	KeyCannotShareEmptyCart                   = "cannotShareEmptyCart"
	KeyCartLinkCopiedTitle                    = "cartLinkCopiedTitle"
	KeyCartLinkCopiedDesc                     = "cartLinkCopiedDesc"
	KeyLoadSharedCartTitle                    = "loadSharedCartTitle"
	KeyLoadSharedCartDesc                     = "loadSharedCartDesc"
	KeyInvalidSharedCartLink                  = "invalidSharedCartLink"
	KeySharedCartLoadedTitle                  = "sharedCartLoadedTitle"
	KeySharedCartLoadedDesc                   = "sharedCartLoadedDesc"
	KeySharedCartDismissed                    = "sharedCartDismissed"
	KeyNothingPending                         = "nothingPending"
	KeyErrorFetchingCartDetails               = "errorFetchingCartDetails"
	KeyCartTooLargeToResolve                  = "cartTooLargeToResolve"
	KeyMixedCurrency                          = "mixedCurrency"
	KeyError                                  = "error"
	KeyLoadCart                               = "loadCart"
	KeyProductNotFound                        = "productNotFound"
	KeyErrorFetchingProducts                  = "errorFetchingProducts"
	KeyMostPopular                            = "mostPopular"
	KeyErrorFetchingPopularProducts           = "errorFetchingPopularProducts"
	KeyErrorFetchingConfiguredPopularProducts = "errorFetchingConfiguredPopularProducts"
	KeyNoPopularProductsConfigured            = "noPopularProductsConfigured"
	KeyExactPopularProductsRequiredDesc       = "exactPopularProductsRequiredDesc"
	KeyPopularProductsUpdatedSuccessTitle     = "popularProductsUpdatedSuccessTitle"
	KeyPopularProductsUpdatedErrorDesc        = "popularProductsUpdatedErrorDesc"
	KeyRoleUpdatedSuccess                     = "roleUpdatedSuccess"
	KeyRoleUpdatedError                       = "roleUpdatedError"
	KeyErrorUpdatingRoleDesc                  = "errorUpdatingRoleDesc"
	KeyErrorFetchingUsers                     = "errorFetchingUsers"
)

type entry struct {
	en string
	bg string
}

func (e entry) get(l Language) string {
	if l == Bulgarian && e.bg != "" {
		return e.bg
	}
	return e.en
}

var messages = map[string]entry{
	KeyItemAddedToCart:           {en: "Item Added to Cart", bg: "Продукт добавен в количката"},
	KeyItemAddedToCartDescSuffix: {en: "was added to your cart.", bg: "беше добавен към вашата количка."},
	KeyItemRemovedFromCart:       {en: "Item Removed", bg: "Продукт премахнат"},
	KeyCartCleared:               {en: "Cart Cleared", bg: "Количката изчистена"},
	KeyCartUpdated:               {en: "Cart Updated", bg: "Количката е обновена"},
	KeyYourCartIsEmpty:           {en: "Your Cart is Empty", bg: "Вашата количка е празна"},
	KeyCartIsEmpty:               {en: "Cart is Empty", bg: "Количката е празна"},
	KeyCannotShareEmptyCart:      {en: "Cannot share an empty cart.", bg: "Не може да споделите празна количка."},
	KeyCartLinkCopiedTitle:       {en: "Link Copied!", bg: "Линкът е копиран!"},
	KeyCartLinkCopiedDesc:        {en: "Cart link copied to clipboard.", bg: "Линкът към количката е копиран."},
	KeyLoadSharedCartTitle:       {en: "Load Shared Cart?", bg: "Зареждане на споделена количка?"},
	KeyLoadSharedCartDesc: {
		en: "This will replace your current cart items. Do you want to continue?",
		bg: "Това ще замени текущите артикули във вашата количка. Искате ли да продължите?",
	},
	KeyInvalidSharedCartLink: {
		en: "The shared cart link is invalid or expired.",
		bg: "Споделеният линк към количката е невалиден или изтекъл.",
	},
	KeySharedCartLoadedTitle: {en: "Shared Cart Loaded", bg: "Споделена количка заредена"},
	KeySharedCartLoadedDesc: {
		en: "The items from the shared link have been added to your cart.",
		bg: "Артикулите от споделения линк бяха добавени към вашата количка.",
	},
	KeySharedCartDismissed: {en: "Shared cart dismissed.", bg: "Споделената количка е отказана."},
	KeyNothingPending:      {en: "There is no shared cart waiting for confirmation.", bg: "Няма споделена количка, чакаща потвърждение."},
	KeyErrorFetchingCartDetails: {
		en: "Error fetching product details for your cart.",
		bg: "Грешка при извличане на детайли за продуктите в количката.",
	},
	KeyCartTooLargeToResolve: {
		en: "Only the first {count} products of your cart could be loaded.",
		bg: "Само първите {count} продукта от количката могат да бъдат заредени.",
	},
	KeyMixedCurrency: {
		en: "{count} items use a different currency and are not included in the total.",
		bg: "{count} артикула са в друга валута и не са включени в общата сума.",
	},
	KeyError:           {en: "An error occurred", bg: "Възникна грешка"},
	KeyLoadCart:        {en: "Load Cart", bg: "Зареди количка"},
	KeyProductNotFound: {en: "Product not found", bg: "Продуктът не е намерен"},
	KeyErrorFetchingProducts: {
		en: "Error fetching products.",
		bg: "Грешка при извличане на продуктите.",
	},
	KeyMostPopular: {en: "Most Popular Products", bg: "Най-Популярни"},
	KeyErrorFetchingPopularProducts: {
		en: "Error fetching popular products settings.",
		bg: "Грешка при извличане на настройките за популярни продукти.",
	},
	KeyErrorFetchingConfiguredPopularProducts: {
		en: "Could not fetch all configured popular products. Please check admin settings.",
		bg: "Не можаха да бъдат извлечени всички конфигурирани популярни продукти. Моля, проверете настройките в админ панела.",
	},
	KeyNoPopularProductsConfigured: {
		en: "No popular products are currently configured.",
		bg: "В момента няма конфигурирани популярни продукти.",
	},
	KeyExactPopularProductsRequiredDesc: {
		en: "You must select exactly {count} popular products.",
		bg: "Трябва да изберете точно {count} популярни продукта.",
	},
	KeyPopularProductsUpdatedSuccessTitle: {en: "Popular Products Updated", bg: "Популярните Продукти са Актуализирани"},
	KeyPopularProductsUpdatedErrorDesc: {
		en: "Could not save the popular products selection. Please try again.",
		bg: "Неуспешно запазване на избора на популярни продукти. Моля, опитайте отново.",
	},
	KeyRoleUpdatedSuccess: {en: "Role Updated", bg: "Ролята е Актуализирана"},
	KeyRoleUpdatedError:   {en: "Role Update Failed", bg: "Актуализацията на Ролята Неуспешна"},
	KeyErrorUpdatingRoleDesc: {
		en: "Could not update the user role. Please try again.",
		bg: "Неуспешно актуализиране на потребителската роля. Моля, опитайте отново.",
	},
	KeyErrorFetchingUsers: {en: "Error fetching user list.", bg: "Грешка при извличане на списъка с потребители."},
}
