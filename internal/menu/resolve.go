package menu

import (
	"fmt"

	"github.com/plateboard/plateboard/internal/money"
	"github.com/plateboard/plateboard/internal/orders"
)

// Selection is one modifier choice in a checkout cart line.
type Selection struct {
	GroupName  string
	OptionName string
}

// ResolveUnitPrice computes the unit price of an item with the given
// modifier selections: base price plus each chosen option's delta. Unknown
// groups or options are rejected so a stale client cannot invent prices.
func ResolveUnitPrice(it *Item, selections []Selection) (money.Amount, []orders.SelectedModifier, error) {
	price := it.BasePrice
	resolved := make([]orders.SelectedModifier, 0, len(selections))

	for _, sel := range selections {
		var group *ModifierGroup
		for i := range it.ModifierGroups {
			if it.ModifierGroups[i].Name == sel.GroupName {
				group = &it.ModifierGroups[i]
				break
			}
		}
		if group == nil {
			return 0, nil, fmt.Errorf("unknown modifier group %q for item %q", sel.GroupName, it.Name)
		}

		var opt *ModifierOption
		for i := range group.Options {
			if group.Options[i].Name == sel.OptionName {
				opt = &group.Options[i]
				break
			}
		}
		if opt == nil {
			return 0, nil, fmt.Errorf("unknown option %q in group %q for item %q", sel.OptionName, sel.GroupName, it.Name)
		}

		price += opt.Price
		resolved = append(resolved, orders.SelectedModifier{
			GroupName:   group.Name,
			OptionName:  opt.Name,
			OptionPrice: opt.Price,
		})
	}

	return price, resolved, nil
}

// RecipeDeductions sums ingredient consumption across order lines,
// quantity-weighted, keyed by ingredient id. Lines whose menu item no
// longer exists contribute nothing (the item snapshot still bills the
// customer; only stock tracking degrades).
func RecipeDeductions(lines []orders.OrderItem, byID map[string]Item) map[string]float64 {
	totals := map[string]float64{}
	for _, line := range lines {
		it, ok := byID[line.MenuItemID]
		if !ok {
			continue
		}
		for _, link := range it.Recipe {
			totals[link.IngredientID] += link.Quantity * float64(line.Quantity)
		}
	}
	return totals
}
